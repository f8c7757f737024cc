package domain

import (
	"testing"
)

func TestDefaultSettingsValid(t *testing.T) {
	s := DefaultSettings()
	if err := s.Validate(); err != nil {
		t.Fatalf("default settings should validate, got %v", err)
	}
	if s.Mode != ModeSuggestive {
		t.Errorf("expected suggestive default mode, got %q", s.Mode)
	}
	if len(s.Topics) != 3 {
		t.Errorf("expected 3 seeded topics, got %d", len(s.Topics))
	}
}

func TestValidateRejectsUnknownMode(t *testing.T) {
	s := Settings{Mode: "loud"}
	if err := s.Validate(); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestValidateRejectsDuplicateTopicIDs(t *testing.T) {
	s := Settings{
		Mode: ModeSilent,
		Topics: []Topic{
			{ID: "a", Title: "School"},
			{ID: "a", Title: "Work"},
		},
	}
	if err := s.Validate(); err == nil {
		t.Fatal("expected error for duplicate topic ids")
	}
}

func TestValidateAllowsRepeatedTitles(t *testing.T) {
	s := Settings{
		Mode: ModeSuggestive,
		Topics: []Topic{
			{ID: "a", Title: "School"},
			{ID: "b", Title: "School"},
		},
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("repeated titles should be allowed, got %v", err)
	}
}

func TestNormalizeDropsBlanksAndMintsIDs(t *testing.T) {
	s := Settings{
		Mode: ModeSuggestive,
		Topics: []Topic{
			{Title: "  School  "},
			{Title: "   "},
		},
		AvoidTopics: []string{" Politics ", ""},
		Reminders:   []string{"", " Ask about family "},
	}
	s.Normalize()

	if len(s.Topics) != 1 || s.Topics[0].Title != "School" {
		t.Fatalf("unexpected topics after normalize: %+v", s.Topics)
	}
	if s.Topics[0].ID == "" {
		t.Error("expected a minted topic id")
	}
	if len(s.AvoidTopics) != 1 || s.AvoidTopics[0] != "Politics" {
		t.Errorf("unexpected avoid topics: %v", s.AvoidTopics)
	}
	if len(s.Reminders) != 1 || s.Reminders[0] != "Ask about family" {
		t.Errorf("unexpected reminders: %v", s.Reminders)
	}
}

func TestGoalBannerDetection(t *testing.T) {
	banner := Message{Type: MessageReminder, Content: GoalMessagePrefix + "close the deal"}
	if !banner.IsGoalBanner() {
		t.Error("expected goal banner to be detected")
	}
	plain := Message{Type: MessageReminder, Content: "Remember: Ask about family"}
	if plain.IsGoalBanner() {
		t.Error("plain reminder must not be a goal banner")
	}
	wrongType := Message{Type: MessageSuggestion, Content: GoalMessagePrefix + "x"}
	if wrongType.IsGoalBanner() {
		t.Error("suggestion must not be a goal banner")
	}
}
