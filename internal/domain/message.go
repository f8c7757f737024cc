// Package domain contains core domain types for the CallCue application.
package domain

import (
	"time"
)

// MessageType categorizes assistant messages.
type MessageType string

const (
	// MessageSuggestion proposes something the user could say or bring up.
	MessageSuggestion MessageType = "suggestion"
	// MessageAlert warns about conversational drift or risky behavior.
	MessageAlert MessageType = "alert"
	// MessageReminder surfaces a configured or ad-hoc reminder.
	MessageReminder MessageType = "reminder"
	// MessageResponse is a direct reply to free-text user input.
	MessageResponse MessageType = "response"
)

// GoalMessagePrefix marks a reminder message carrying the conversation goal.
// The frontend renders such messages as a persistent banner instead of a
// regular feed entry.
const GoalMessagePrefix = "Goal: "

// Message is a single assistant message. Immutable once created.
type Message struct {
	ID        string      `json:"id"`
	Type      MessageType `json:"type"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
}

// IsGoalBanner reports whether the message is the goal banner marker.
func (m Message) IsGoalBanner() bool {
	return m.Type == MessageReminder && len(m.Content) >= len(GoalMessagePrefix) &&
		m.Content[:len(GoalMessagePrefix)] == GoalMessagePrefix
}
