package domain

import (
	"time"
)

// CallState tracks the lifecycle of a call.
type CallState string

const (
	// CallIdle means no call is in progress.
	CallIdle CallState = "idle"
	// CallConnecting means a call is being set up.
	CallConnecting CallState = "connecting"
	// CallActive means a call is in progress.
	CallActive CallState = "active"
	// CallEnded means a call just finished; reverts to idle shortly after.
	CallEnded CallState = "ended"
)

// Conversation holds everything accumulated during one call. Transcript and
// messages are append-only; identity is fixed at creation.
type Conversation struct {
	ID         string     `json:"id"`
	Transcript []string   `json:"transcript"`
	Messages   []Message  `json:"messages"`
	StartTime  *time.Time `json:"start_time,omitempty"`
	EndTime    *time.Time `json:"end_time,omitempty"`
}

// Append adds an assistant message to the conversation.
func (c *Conversation) Append(m Message) {
	c.Messages = append(c.Messages, m)
}

// AppendTranscript adds a speaker-labeled transcript line.
func (c *Conversation) AppendTranscript(line string) {
	c.Transcript = append(c.Transcript, line)
}

// Clone returns a deep copy safe to hand to other goroutines.
func (c *Conversation) Clone() *Conversation {
	if c == nil {
		return nil
	}
	out := &Conversation{ID: c.ID}
	out.Transcript = append([]string(nil), c.Transcript...)
	out.Messages = append([]Message(nil), c.Messages...)
	if c.StartTime != nil {
		t := *c.StartTime
		out.StartTime = &t
	}
	if c.EndTime != nil {
		t := *c.EndTime
		out.EndTime = &t
	}
	return out
}
