package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/mkorolev/callcue/internal/call"
	"github.com/mkorolev/callcue/internal/domain"
	"github.com/mkorolev/callcue/internal/speech"
)

// wsInbound represents a frame sent by the frontend over the call socket.
type wsInbound struct {
	Type    string `json:"type"`
	Speaker string `json:"speaker,omitempty"`
	Text    string `json:"text,omitempty"`
	Final   bool   `json:"final,omitempty"`
}

// wsSnapshot is the first frame sent on connect so a reconnecting client
// can rebuild its view before live events resume.
type wsSnapshot struct {
	Type         string               `json:"type"`
	State        domain.CallState     `json:"state"`
	Conversation *domain.Conversation `json:"conversation"`
}

// WebSocketHandler streams call events to the frontend and accepts
// browser-captured speech results on the same connection.
type WebSocketHandler struct {
	hub           *call.Hub
	sched         *call.Scheduler
	relay         *speech.Relay
	allowedOrigin string
	isDev         bool
}

// NewWebSocketHandler creates a call socket handler. relay may be nil when
// the server runs on the simulated speech source; speech frames are then
// ignored.
func NewWebSocketHandler(hub *call.Hub, sched *call.Scheduler, relay *speech.Relay, allowedOrigin string, isDev bool) *WebSocketHandler {
	return &WebSocketHandler{
		hub:           hub,
		sched:         sched,
		relay:         relay,
		allowedOrigin: allowedOrigin,
		isDev:         isDev,
	}
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	slog.Info("WebSocket connection request", "ip", r.RemoteAddr)

	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "session ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr)
		}
	}()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	state, conv := h.sched.Snapshot()
	if err := h.writeJSON(ctx, ws, wsSnapshot{Type: "snapshot", State: state, Conversation: conv}); err != nil {
		slog.Debug("Failed to send snapshot", "error", err)
		return
	}

	sub := h.hub.Subscribe()
	defer h.hub.Unsubscribe(sub)

	// Event loop: hub -> WebSocket.
	go func() {
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case payload, ok := <-sub.C:
				if !ok {
					return
				}
				if err := ws.Write(ctx, websocket.MessageText, payload); err != nil {
					slog.Debug("WebSocket write error", "error", err)
					return
				}
			}
		}
	}()

	// Input loop: WebSocket -> speech relay.
	h.inputLoop(ctx, ws)
	slog.Info("WebSocket session ended", "ip", r.RemoteAddr)
}

func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowedOrigin == "*" {
		return true
	}
	if origin == h.allowedOrigin {
		return true
	}
	slog.Warn("WebSocket origin rejected", "origin", origin, "allowed", h.allowedOrigin)
	return false
}

func (h *WebSocketHandler) inputLoop(ctx context.Context, ws *websocket.Conn) {
	for {
		_, message, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				slog.Debug("WebSocket closed by client")
			} else {
				slog.Debug("WebSocket read error", "error", err)
			}
			return
		}

		var msg wsInbound
		if err := json.Unmarshal(message, &msg); err != nil {
			slog.Warn("Dropping malformed WebSocket frame", "error", err)
			continue
		}

		switch msg.Type {
		case "speech":
			if h.relay == nil {
				slog.Debug("Speech frame received without relay source, ignoring")
				continue
			}
			h.relay.Deliver(speech.Result{Speaker: msg.Speaker, Text: msg.Text, Final: msg.Final})
		case "ping":
			if err := h.writeJSON(ctx, ws, map[string]string{"type": "pong"}); err != nil {
				slog.Debug("Failed to send pong", "error", err)
			}
		}
	}
}

func (h *WebSocketHandler) writeJSON(ctx context.Context, ws *websocket.Conn, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return ws.Write(ctx, websocket.MessageText, data)
}
