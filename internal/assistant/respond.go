package assistant

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// reminderRequestPattern parses "remind me to|about <text> [in N min]".
// Anchored at the end so the lazy text group captures the whole reminder
// rather than its shortest possible prefix.
var reminderRequestPattern = regexp.MustCompile(`remind me (?:to|about) (.+?)(?: in (\d+) min)?$`)

// responseRule pairs an intent predicate with a content builder. Rules are
// evaluated in priority order against the lowercased user message; the
// first match wins. Builders run with the assistant lock held.
type responseRule struct {
	match func(msg string) bool
	build func(a *Assistant, msg string) string
}

var responseRules = []responseRule{
	{
		match: containsAny("talking too much"),
		build: func(*Assistant, string) string {
			return "Yes, try to be more concise. Say: 'But to get to the point...'"
		},
	},
	{
		match: containsAny("sound rude", "was i rude"),
		build: func(*Assistant, string) string {
			return "No, you were clear and respectful. Continue with confidence."
		},
	},
	{
		match: containsAny("remind me"),
		build: (*Assistant).reminderAcknowledgment,
	},
	{
		match: containsAny("what do i say", "what should i say", "he's quiet", "she's quiet", "they're quiet"),
		build: (*Assistant).quietAdvice,
	},
	{
		match: containsAny("nervous", "anxious", "anxiety"),
		build: func(*Assistant, string) string {
			return "Take a deep breath. Speak slowly and remember you're doing great. It's okay to pause."
		},
	},
	{
		match: containsAny("end the call", "wrap up", "finish"),
		build: func(*Assistant, string) string {
			return "Say: 'I should let you go. It was great talking with you. Let's catch up again soon.'"
		},
	},
	{
		match: containsAny("goal", "purpose", "objective"),
		build: (*Assistant).goalEcho,
	},
	{
		match: containsAny("next topic", "what topic"),
		build: (*Assistant).nextTopicAdvice,
	},
}

// directResponse answers the sticky user message. Without one it degrades
// to the suggestion generator.
func (a *Assistant) directResponse() string {
	if a.lastUserMessage == "" {
		return a.suggestion()
	}

	msg := strings.ToLower(a.lastUserMessage)
	for _, rule := range responseRules {
		if rule.match(msg) {
			return rule.build(a, msg)
		}
	}

	templates := []string{
		"Try to speak more slowly and clearly",
		"That's a good point to bring up",
		"Ask them to elaborate on what they just said",
		"You could transition to another topic now",
		"You're doing well. Keep the conversation flowing naturally.",
		"Maintain eye contact and nod to show you're engaged.",
	}
	return templates[a.rnd.Intn(len(templates))]
}

func (a *Assistant) reminderAcknowledgment(msg string) string {
	m := reminderRequestPattern.FindStringSubmatch(msg)
	if m == nil {
		return "I'll remind you about that soon."
	}

	text := m[1]
	if m[2] != "" {
		minutes, err := strconv.Atoi(m[2])
		if err == nil && minutes > 0 {
			unit := "minute"
			if minutes > 1 {
				unit = "minutes"
			}
			return fmt.Sprintf("Noted. Will remind you about %q in %d %s.", text, minutes, unit)
		}
	}
	return fmt.Sprintf("I'll remind you about %q shortly.", text)
}

func (a *Assistant) quietAdvice(string) string {
	if goal := a.settings.ConversationGoal; goal != "" {
		return fmt.Sprintf("Based on your goal, ask: \"I'd like to know more about your thoughts on %s?\"", lastWords(goal, 3))
	}

	if undiscussed := a.undiscussedTopics(); len(undiscussed) > 0 {
		return fmt.Sprintf("Ask: \"What's your take on %s?\"", undiscussed[0].Title)
	}

	return "Ask: 'What are your thoughts on that?' or 'Could you tell me more about your perspective?'"
}

func (a *Assistant) goalEcho(string) string {
	if goal := a.settings.ConversationGoal; goal != "" {
		return fmt.Sprintf("Your goal is: %s. Stay focused on this.", goal)
	}
	return "You haven't set a specific goal for this conversation. You can add one in the settings."
}

func (a *Assistant) nextTopicAdvice(string) string {
	if undiscussed := a.undiscussedTopics(); len(undiscussed) > 0 {
		next := undiscussed[0]
		return fmt.Sprintf("Next topic: %s. Try saying: \"I'd like to talk about %s now.\"", next.Title, next.Title)
	}
	return "You've covered all your planned topics. You could ask if they have anything they'd like to discuss."
}

func containsAny(needles ...string) func(string) bool {
	return func(msg string) bool {
		for _, needle := range needles {
			if strings.Contains(msg, needle) {
				return true
			}
		}
		return false
	}
}
