package call

import (
	"time"
)

// Timings collects every delay and interval the scheduler uses. Tests
// shrink these to milliseconds; production uses DefaultTimings.
type Timings struct {
	// MessageInterval is the periodic message loop cadence in suggestive
	// and silent modes. The timer keeps firing in silent mode so switching
	// to a talkative mode resumes promptly; emission is suppressed at the
	// firing site instead.
	MessageInterval time.Duration

	// AssertiveInterval is the periodic cadence in assertive mode.
	AssertiveInterval time.Duration

	// MonitorInterval is the liveness sweep cadence for the speech source.
	MonitorInterval time.Duration

	// GoalAnnounceDelay is how long after call start the goal banner
	// reminder is appended.
	GoalAnnounceDelay time.Duration

	// ResponseDelay is the pause before answering a user message.
	ResponseDelay time.Duration

	// EndedResetDelay is how long the ended state lingers before
	// auto-reverting to idle.
	EndedResetDelay time.Duration

	// ReminderUnit is the duration of one "min" in ad-hoc reminder
	// requests. Production is a real minute.
	ReminderUnit time.Duration
}

// DefaultTimings returns production timings.
func DefaultTimings() Timings {
	return Timings{
		MessageInterval:   15 * time.Second,
		AssertiveInterval: 8 * time.Second,
		MonitorInterval:   5 * time.Second,
		GoalAnnounceDelay: 2 * time.Second,
		ResponseDelay:     500 * time.Millisecond,
		EndedResetDelay:   2 * time.Second,
		ReminderUnit:      time.Minute,
	}
}
