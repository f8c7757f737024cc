package call

import (
	"encoding/json"
	"log/slog"
	"sync"
)

const subscriberBuffer = 64

// Subscriber is one event stream consumer (typically a WebSocket
// connection). Events arrive on C in publish order; the channel closes on
// unsubscribe.
type Subscriber struct {
	C chan []byte
}

// Hub fans scheduler events out to connected frontends. Publishing never
// blocks: a subscriber that cannot keep up has events dropped.
type Hub struct {
	logger *slog.Logger

	mu   sync.RWMutex
	subs map[*Subscriber]struct{}
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger: logger,
		subs:   make(map[*Subscriber]struct{}),
	}
}

// Subscribe registers a new consumer.
func (h *Hub) Subscribe() *Subscriber {
	sub := &Subscriber{C: make(chan []byte, subscriberBuffer)}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("Event subscriber registered")
	return sub
}

// Unsubscribe removes a consumer and closes its channel.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	_, ok := h.subs[sub]
	if ok {
		delete(h.subs, sub)
	}
	h.mu.Unlock()
	if ok {
		close(sub.C)
		h.logger.Debug("Event subscriber unregistered")
	}
}

// Publish serializes the event once and hands it to every subscriber.
func (h *Hub) Publish(event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Failed to encode event", "type", event.Type, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs {
		select {
		case sub.C <- payload:
		default:
			h.logger.Warn("Event subscriber lagging, dropping event", "type", event.Type)
		}
	}
}
