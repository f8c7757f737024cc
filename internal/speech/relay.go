package speech

import (
	"log/slog"
	"sync"
)

// Relay is fed by the browser's own speech capture: the frontend runs the
// Web Speech API and forwards every result over the call WebSocket, where
// the handler delivers it here. Results received while the relay is not
// listening are dropped.
type Relay struct {
	logger *slog.Logger

	mu        sync.Mutex
	listening bool
	cb        Callback
}

// NewRelay creates a relay source.
func NewRelay(logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{logger: logger}
}

// Supported always reports true; the relay needs nothing from the host.
func (r *Relay) Supported() bool { return true }

// Listening reports whether results are being accepted.
func (r *Relay) Listening() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listening
}

// Start begins accepting delivered results.
func (r *Relay) Start(cb Callback) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listening = true
	r.cb = cb
	return true
}

// Stop discards the callback and drops further deliveries.
func (r *Relay) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listening = false
	r.cb = nil
}

// Deliver hands a browser-captured result to the active callback. The
// speaker is always the local user; anything else the browser sends is
// overridden.
func (r *Relay) Deliver(res Result) {
	r.mu.Lock()
	cb := r.cb
	listening := r.listening
	r.mu.Unlock()

	if !listening || cb == nil {
		r.logger.Debug("Dropping speech result, relay not listening", "text_len", len(res.Text))
		return
	}
	res.Speaker = "You"
	cb(res)
}
