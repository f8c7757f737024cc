// Package assistant implements the message policy engine: given the current
// settings and a rolling view of the conversation, it decides which kind of
// message to emit next and generates its content from a fixed template
// corpus. No model calls are involved; selection is rule based.
package assistant

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mkorolev/callcue/internal/domain"
)

// Probability thresholds for the decision procedure and content selection.
// A draw strictly above the threshold triggers the branch.
const (
	reminderThreshold       = 0.7
	alertThreshold          = 0.5
	goalSuggestionThreshold = 0.7
	goalDriftThreshold      = 0.5
	goalReminderThreshold   = 0.6
)

// Rand is the randomness source for template selection. *rand.Rand
// satisfies it; tests substitute scripted draws.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// Assistant is the per-call policy engine. All methods are safe for
// concurrent use; decisions always read the settings in effect at decision
// time, never a snapshot from call start.
type Assistant struct {
	mu       sync.Mutex
	settings domain.Settings
	context  *Context
	// lastUserMessage is sticky: once set, every unforced decision yields a
	// direct response until it is overwritten. Never cleared.
	lastUserMessage string
	rnd             Rand
}

// New creates an assistant bound to the given settings. rnd may be nil for
// a time-seeded generator.
func New(settings domain.Settings, rnd Rand) *Assistant {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Assistant{
		settings: settings,
		context:  NewContext(),
		rnd:      rnd,
	}
}

// UpdateSettings replaces the settings used for all subsequent decisions and
// recomputes topic state against the existing window.
func (a *Assistant) UpdateSettings(settings domain.Settings) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.settings = settings
	a.context.Refresh(a.allTitles())
}

// ObserveTranscript feeds one speaker-labeled transcript line into the
// rolling window.
func (a *Assistant) ObserveTranscript(line string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.context.Observe(line, a.allTitles())
}

// SetUserMessage records free-text user input verbatim. Sticky.
func (a *Assistant) SetUserMessage(text string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastUserMessage = text
}

// GenerateResponse produces the next assistant message. If force is
// non-empty the decision procedure is skipped and content is generated for
// that type. The content is never empty regardless of settings state.
func (a *Assistant) GenerateResponse(force domain.MessageType) domain.Message {
	a.mu.Lock()
	defer a.mu.Unlock()

	msgType := force
	if msgType == "" {
		msgType = a.determineType()
	}

	return domain.Message{
		ID:        uuid.NewString(),
		Type:      msgType,
		Content:   a.contentFor(msgType),
		Timestamp: time.Now(),
	}
}

// determineType is the ordered decision procedure; the first matching rule
// wins.
func (a *Assistant) determineType() domain.MessageType {
	if a.lastUserMessage != "" {
		return domain.MessageResponse
	}

	// The scheduler suppresses unprompted emission in silent mode; the
	// engine still answers with a suggestion if asked directly.
	if a.settings.Mode == domain.ModeSilent {
		return domain.MessageSuggestion
	}

	if len(a.settings.Reminders) > 0 && a.rnd.Float64() > reminderThreshold {
		return domain.MessageReminder
	}

	if a.avoidTopicPresent() && (a.settings.Mode == domain.ModeAssertive || a.rnd.Float64() > alertThreshold) {
		return domain.MessageAlert
	}

	return domain.MessageSuggestion
}

func (a *Assistant) contentFor(msgType domain.MessageType) string {
	switch msgType {
	case domain.MessageSuggestion:
		return a.suggestion()
	case domain.MessageAlert:
		return a.alert()
	case domain.MessageReminder:
		return a.reminder()
	case domain.MessageResponse:
		return a.directResponse()
	default:
		return "I'm not sure what to suggest right now."
	}
}

func (a *Assistant) suggestion() string {
	if goal := a.settings.ConversationGoal; goal != "" && a.rnd.Float64() > goalSuggestionThreshold {
		templates := []string{
			fmt.Sprintf("Remember your goal: %s", goal),
			fmt.Sprintf("To achieve your goal, try asking about their perspective on %s...", firstWords(goal, 3)),
			fmt.Sprintf("Based on your goal, now would be a good time to steer the conversation toward %s", lastWords(goal, 3)),
			fmt.Sprintf("Keep your goal in mind: %s", goal),
		}
		return templates[a.rnd.Intn(len(templates))]
	}

	if undiscussed := a.undiscussedTopics(); len(undiscussed) > 0 {
		topic := undiscussed[a.rnd.Intn(len(undiscussed))]
		templates := []string{
			fmt.Sprintf("Ask about %s", topic.Title),
			fmt.Sprintf("Say: \"I wanted to talk about %s. What do you think?\"", topic.Title),
			fmt.Sprintf("Transition to %s by saying: \"By the way, regarding %s...\"", topic.Title, topic.Title),
			fmt.Sprintf("Bring up %s now", topic.Title),
		}
		return templates[a.rnd.Intn(len(templates))]
	}

	if len(a.context.Window()) > 0 {
		templates := []string{
			"Ask them to elaborate on their last point",
			"Nod and say 'That's interesting, tell me more'",
			"Summarize what they've said to show you're listening",
			"Share a brief related experience of your own",
			"Ask: 'How do you feel about that?'",
		}
		return templates[a.rnd.Intn(len(templates))]
	}

	return "Start with a friendly greeting and ask how they're doing"
}

func (a *Assistant) alert() string {
	// Deterministic: first configured avoid topic present in the window
	// wins, in settings order.
	for _, avoid := range a.settings.AvoidTopics {
		if a.context.Has(avoid) {
			return fmt.Sprintf("Careful! The conversation is drifting toward %s. Try to redirect.", avoid)
		}
	}

	if goal := a.settings.ConversationGoal; goal != "" && a.rnd.Float64() > goalDriftThreshold {
		return fmt.Sprintf("You're getting off track from your goal: %s. Try to refocus.", goal)
	}

	templates := []string{
		"You're speaking too quickly. Slow down and take a breath.",
		"You've been talking for a while. Give them a chance to respond.",
		"Your tone is getting tense. Try to stay calm and measured.",
		"You're starting to go off-topic. Refocus on your main points.",
		"Be careful - you might be agreeing to something you wanted to avoid.",
	}
	return templates[a.rnd.Intn(len(templates))]
}

func (a *Assistant) reminder() string {
	if goal := a.settings.ConversationGoal; goal != "" && a.rnd.Float64() > goalReminderThreshold {
		return fmt.Sprintf("Goal reminder: %s", goal)
	}

	if len(a.settings.Reminders) > 0 {
		return fmt.Sprintf("Remember: %s", a.settings.Reminders[a.rnd.Intn(len(a.settings.Reminders))])
	}

	return "Remember your goals for this conversation"
}

// allTitles returns topic and avoid-topic titles for window matching.
func (a *Assistant) allTitles() []string {
	titles := make([]string, 0, len(a.settings.Topics)+len(a.settings.AvoidTopics))
	for _, t := range a.settings.Topics {
		titles = append(titles, t.Title)
	}
	titles = append(titles, a.settings.AvoidTopics...)
	return titles
}

func (a *Assistant) avoidTopicPresent() bool {
	for _, avoid := range a.settings.AvoidTopics {
		if a.context.Has(avoid) {
			return true
		}
	}
	return false
}

// undiscussedTopics returns configured topics absent from the window, in
// settings order.
func (a *Assistant) undiscussedTopics() []domain.Topic {
	var out []domain.Topic
	for _, t := range a.settings.Topics {
		if !a.context.Has(t.Title) {
			out = append(out, t)
		}
	}
	return out
}

// firstWords returns the first n whitespace-separated words of s.
func firstWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}

// lastWords returns the last n whitespace-separated words of s.
func lastWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[len(words)-n:]
	}
	return strings.Join(words, " ")
}
