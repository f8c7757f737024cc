package assistant

import (
	"strings"
	"testing"

	"github.com/mkorolev/callcue/internal/domain"
)

func respondTo(t *testing.T, s domain.Settings, rnd Rand, text string) string {
	t.Helper()
	if rnd == nil {
		rnd = &scriptedRand{}
	}
	a := New(s, rnd)
	a.SetUserMessage(text)
	msg := a.GenerateResponse(domain.MessageResponse)
	if msg.Content == "" {
		t.Fatalf("empty response content for %q", text)
	}
	return msg.Content
}

func TestRespondPacing(t *testing.T) {
	got := respondTo(t, domain.Settings{Mode: domain.ModeSuggestive}, nil, "Am I talking too much?")
	if got != "Yes, try to be more concise. Say: 'But to get to the point...'" {
		t.Errorf("unexpected pacing advice %q", got)
	}
}

func TestRespondRudeness(t *testing.T) {
	for _, text := range []string{"did I sound rude?", "Was I rude just now?"} {
		got := respondTo(t, domain.Settings{Mode: domain.ModeSuggestive}, nil, text)
		if got != "No, you were clear and respectful. Continue with confidence." {
			t.Errorf("unexpected reassurance for %q: %q", text, got)
		}
	}
}

func TestRespondReminderWithMinutes(t *testing.T) {
	got := respondTo(t, domain.Settings{Mode: domain.ModeSuggestive}, nil, "remind me to call mom in 2 min")
	if got != `Noted. Will remind you about "call mom" in 2 minutes.` {
		t.Errorf("unexpected confirmation %q", got)
	}
}

func TestRespondReminderSingularMinute(t *testing.T) {
	got := respondTo(t, domain.Settings{Mode: domain.ModeSuggestive}, nil, "remind me about the invoice in 1 min")
	if got != `Noted. Will remind you about "the invoice" in 1 minute.` {
		t.Errorf("unexpected confirmation %q", got)
	}
}

func TestRespondReminderWithoutMinutes(t *testing.T) {
	got := respondTo(t, domain.Settings{Mode: domain.ModeSuggestive}, nil, "remind me to mention the deadline")
	if got != `I'll remind you about "mention the deadline" shortly.` {
		t.Errorf("unexpected confirmation %q", got)
	}
}

func TestRespondReminderUnparseable(t *testing.T) {
	got := respondTo(t, domain.Settings{Mode: domain.ModeSuggestive}, nil, "can you remind me later")
	if got != "I'll remind you about that soon." {
		t.Errorf("unexpected acknowledgment %q", got)
	}
}

func TestRespondQuietWithGoal(t *testing.T) {
	s := domain.Settings{Mode: domain.ModeSuggestive, ConversationGoal: "agree on the project timeline"}
	got := respondTo(t, s, nil, "she's quiet, what do I do")
	want := `Based on your goal, ask: "I'd like to know more about your thoughts on the project timeline?"`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRespondQuietSuggestsFirstUndiscussedTopic(t *testing.T) {
	s := domain.Settings{
		Mode: domain.ModeSuggestive,
		Topics: []domain.Topic{
			{ID: "t1", Title: "School"},
			{ID: "t2", Title: "New Mercedes"},
		},
	}
	got := respondTo(t, s, nil, "what should i say next?")
	if got != `Ask: "What's your take on School?"` {
		t.Errorf("unexpected advice %q", got)
	}
}

func TestRespondQuietGenericFallback(t *testing.T) {
	got := respondTo(t, domain.Settings{Mode: domain.ModeSuggestive}, nil, "what do i say")
	if !strings.Contains(got, "What are your thoughts on that?") {
		t.Errorf("unexpected fallback %q", got)
	}
}

func TestRespondNerves(t *testing.T) {
	got := respondTo(t, domain.Settings{Mode: domain.ModeSuggestive}, nil, "I'm getting anxious")
	if !strings.Contains(got, "Take a deep breath") {
		t.Errorf("unexpected calming advice %q", got)
	}
}

func TestRespondClosing(t *testing.T) {
	got := respondTo(t, domain.Settings{Mode: domain.ModeSuggestive}, nil, "how do I wrap up?")
	if !strings.Contains(got, "I should let you go") {
		t.Errorf("unexpected closing line %q", got)
	}
}

func TestRespondGoalEcho(t *testing.T) {
	s := domain.Settings{Mode: domain.ModeSuggestive, ConversationGoal: "close the deal"}
	got := respondTo(t, s, nil, "what's my goal again?")
	if got != "Your goal is: close the deal. Stay focused on this." {
		t.Errorf("unexpected echo %q", got)
	}

	got = respondTo(t, domain.Settings{Mode: domain.ModeSuggestive}, nil, "what's the objective here")
	if got != "You haven't set a specific goal for this conversation. You can add one in the settings." {
		t.Errorf("unexpected no-goal echo %q", got)
	}
}

func TestRespondNextTopic(t *testing.T) {
	s := domain.Settings{
		Mode:   domain.ModeSuggestive,
		Topics: []domain.Topic{{ID: "t1", Title: "Upcoming vacation"}},
	}
	got := respondTo(t, s, nil, "next topic please")
	want := `Next topic: Upcoming vacation. Try saying: "I'd like to talk about Upcoming vacation now."`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	got = respondTo(t, domain.Settings{Mode: domain.ModeSuggestive}, nil, "what topic is left?")
	if !strings.Contains(got, "covered all your planned topics") {
		t.Errorf("unexpected all-covered reply %q", got)
	}
}

func TestRespondGenericFallbackComesFromFixedList(t *testing.T) {
	generic := []string{
		"Try to speak more slowly and clearly",
		"That's a good point to bring up",
		"Ask them to elaborate on what they just said",
		"You could transition to another topic now",
		"You're doing well. Keep the conversation flowing naturally.",
		"Maintain eye contact and nod to show you're engaged.",
	}
	for i := 0; i < len(generic); i++ {
		got := respondTo(t, domain.Settings{Mode: domain.ModeSuggestive}, &scriptedRand{ints: []int{i}}, "hmm okay")
		if got != generic[i] {
			t.Errorf("draw %d: got %q, want %q", i, got, generic[i])
		}
	}
}

func TestRespondWithoutStickyMessageDegradesToSuggestion(t *testing.T) {
	a := New(domain.Settings{Mode: domain.ModeSuggestive}, &scriptedRand{})
	msg := a.GenerateResponse(domain.MessageResponse)
	if msg.Content != "Start with a friendly greeting and ask how they're doing" {
		t.Errorf("expected suggestion degradation, got %q", msg.Content)
	}
}
