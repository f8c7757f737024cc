package call

import (
	"github.com/mkorolev/callcue/internal/domain"
	"github.com/mkorolev/callcue/internal/speech"
)

// Event types pushed to the frontend over the call WebSocket.
const (
	EventState      = "state"
	EventMessage    = "message"
	EventTranscript = "transcript"
	EventInterim    = "interim"
)

// Event is a single frontend-bound notification. Exactly one payload field
// is set depending on Type.
type Event struct {
	Type    string           `json:"type"`
	State   domain.CallState `json:"state,omitempty"`
	Message *domain.Message  `json:"message,omitempty"`
	Line    string           `json:"line,omitempty"`
	Interim *speech.Result   `json:"interim,omitempty"`
}

// Notifier receives scheduler events. Publish must not block the caller for
// long; slow consumers drop events rather than stall the call.
type Notifier interface {
	Publish(event Event)
}

type nopNotifier struct{}

func (nopNotifier) Publish(Event) {}
