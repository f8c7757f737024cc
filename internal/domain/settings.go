package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Mode controls how proactively the assistant speaks up during a call.
type Mode string

const (
	// ModeSilent suppresses all unprompted assistant messages.
	ModeSilent Mode = "silent"
	// ModeSuggestive emits occasional suggestions at a relaxed cadence.
	ModeSuggestive Mode = "suggestive"
	// ModeAssertive emits frequent messages and always reacts to transcript.
	ModeAssertive Mode = "assertive"
)

// Topic is a named subject the user wants raised during the call.
type Topic struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Settings is the user-owned assistant configuration. It is replaced
// wholesale on save and may be swapped at any point during an active call.
type Settings struct {
	Mode             Mode     `json:"mode"`
	Topics           []Topic  `json:"topics"`
	AvoidTopics      []string `json:"avoid_topics"`
	Reminders        []string `json:"reminders"`
	ConversationGoal string   `json:"conversation_goal,omitempty"`
}

// DefaultSettings returns the demo configuration used on first run.
func DefaultSettings() Settings {
	return Settings{
		Mode: ModeSuggestive,
		Topics: []Topic{
			{ID: uuid.NewString(), Title: "School"},
			{ID: uuid.NewString(), Title: "New Mercedes"},
			{ID: uuid.NewString(), Title: "Upcoming vacation"},
		},
		Reminders:   []string{"Mention the project deadline", "Ask about family"},
		AvoidTopics: []string{"Politics", "Religion"},
	}
}

// Validate checks structural invariants: a known mode and unique topic ids.
// Topic titles may repeat.
func (s *Settings) Validate() error {
	switch s.Mode {
	case ModeSilent, ModeSuggestive, ModeAssertive:
	default:
		return fmt.Errorf("unknown mode %q", s.Mode)
	}

	seen := make(map[string]bool, len(s.Topics))
	for _, t := range s.Topics {
		if t.ID == "" {
			return fmt.Errorf("topic %q has empty id", t.Title)
		}
		if seen[t.ID] {
			return fmt.Errorf("duplicate topic id %q", t.ID)
		}
		seen[t.ID] = true
	}
	return nil
}

// Normalize trims whitespace and drops blank entries. Topics without an id
// get a fresh one so the settings form can submit new rows without minting
// ids client-side.
func (s *Settings) Normalize() {
	topics := s.Topics[:0]
	for _, t := range s.Topics {
		t.Title = strings.TrimSpace(t.Title)
		if t.Title == "" {
			continue
		}
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		topics = append(topics, t)
	}
	s.Topics = topics

	s.AvoidTopics = trimBlank(s.AvoidTopics)
	s.Reminders = trimBlank(s.Reminders)
	s.ConversationGoal = strings.TrimSpace(s.ConversationGoal)
}

func trimBlank(items []string) []string {
	out := items[:0]
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
