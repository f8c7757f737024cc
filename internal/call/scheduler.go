// Package call owns the call lifecycle: the idle/active/ended state
// machine, the timers that drive periodic assistant messages, ad-hoc
// reminders, and the speech source liveness monitor.
package call

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mkorolev/callcue/internal/assistant"
	"github.com/mkorolev/callcue/internal/domain"
	"github.com/mkorolev/callcue/internal/speech"
)

// ErrNoActiveCall is returned by operations that require a call in progress.
var ErrNoActiveCall = errors.New("no active call")

// openingSuggestion seeds every new conversation.
const openingSuggestion = "Start with a friendly greeting"

// degradedModeAlert is appended when the speech source fails to start.
const degradedModeAlert = "Speech capture could not start - continuing in degraded mode without a live transcript."

// transcriptReactThreshold: in suggestive mode, a draw above this makes the
// scheduler respond to a transcript line immediately, independent of the
// periodic loop. Assertive mode always responds.
const transcriptReactThreshold = 0.7

// adHocReminderPattern recognizes timed reminder requests in user messages.
// Unlike the engine's conversational parser, the minutes suffix is required
// here: only timed requests schedule a timer.
var adHocReminderPattern = regexp.MustCompile(`(?i)remind me (?:to|about) (.+?) in (\d+) min`)

// Scheduler drives one call at a time. All shared state is guarded by a
// single mutex; every timer callback re-checks call state and its call
// sequence number, so a timer firing after the call ended is a no-op.
type Scheduler struct {
	source   speech.Source
	timings  Timings
	notifier Notifier
	rnd      assistant.Rand
	logger   *slog.Logger

	mu       sync.Mutex
	settings domain.Settings
	state    domain.CallState
	conv     *domain.Conversation
	asst     *assistant.Assistant
	// seq increments whenever a call starts or is torn down; timer
	// callbacks capture it and bail on mismatch.
	seq uint64

	messageTimer *time.Timer
	monitorTimer *time.Timer
	goalTimer    *time.Timer
	idleTimer    *time.Timer
	reminders    map[string]*time.Timer
}

// New creates a scheduler. notifier, rnd, and logger may be nil.
func New(source speech.Source, settings domain.Settings, timings Timings, notifier Notifier, rnd assistant.Rand, logger *slog.Logger) *Scheduler {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		source:    source,
		timings:   timings,
		notifier:  notifier,
		rnd:       rnd,
		logger:    logger,
		settings:  settings,
		state:     domain.CallIdle,
		reminders: make(map[string]*time.Timer),
	}
}

// StartCall begins a new call. If one is already active it is force-stopped
// first so no timers from the previous call leak into the new one.
func (s *Scheduler) StartCall() *domain.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == domain.CallActive {
		s.logger.Warn("StartCall while active, stopping previous call")
		s.teardownLocked()
	}
	if s.idleTimer != nil {
		s.idleTimer.Stop()
		s.idleTimer = nil
	}

	s.seq++
	seq := s.seq
	s.setStateLocked(domain.CallConnecting)

	now := time.Now()
	s.conv = &domain.Conversation{ID: uuid.NewString(), StartTime: &now}
	s.asst = assistant.New(s.settings, s.rnd)
	s.appendLocked(domain.Message{
		ID:        uuid.NewString(),
		Type:      domain.MessageSuggestion,
		Content:   openingSuggestion,
		Timestamp: now,
	})

	if !s.source.Start(s.onSpeech) {
		s.logger.Warn("Speech source failed to start, call continues degraded", "call_id", s.conv.ID)
		s.appendLocked(domain.Message{
			ID:        uuid.NewString(),
			Type:      domain.MessageAlert,
			Content:   degradedModeAlert,
			Timestamp: time.Now(),
		})
	}

	s.setStateLocked(domain.CallActive)
	s.logger.Info("Call started", "call_id", s.conv.ID, "mode", s.settings.Mode)

	s.messageTimer = time.AfterFunc(s.messageIntervalLocked(), func() { s.firePeriodic(seq) })
	s.monitorTimer = time.AfterFunc(s.timings.MonitorInterval, func() { s.fireMonitor(seq) })

	if goal := s.settings.ConversationGoal; goal != "" {
		s.goalTimer = time.AfterFunc(s.timings.GoalAnnounceDelay, func() { s.announceGoal(seq, goal) })
	}

	return s.conv.Clone()
}

// EndCall stops the active call. All pending timers are cancelled; the
// ended state auto-reverts to idle after a fixed delay.
func (s *Scheduler) EndCall() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.CallActive {
		return ErrNoActiveCall
	}

	s.teardownLocked()
	now := time.Now()
	s.conv.EndTime = &now
	s.setStateLocked(domain.CallEnded)
	s.logger.Info("Call ended", "call_id", s.conv.ID, "messages", len(s.conv.Messages), "transcript_lines", len(s.conv.Transcript))

	seq := s.seq
	s.idleTimer = time.AfterFunc(s.timings.EndedResetDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.state == domain.CallEnded && s.seq == seq {
			s.setStateLocked(domain.CallIdle)
		}
	})
	return nil
}

// SendMessage handles free-text user input during an active call: it echoes
// the question, biases the engine toward a direct reply, schedules a timed
// ad-hoc reminder when the text asks for one, and answers shortly after.
func (s *Scheduler) SendMessage(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.CallActive {
		return ErrNoActiveCall
	}

	s.appendLocked(domain.Message{
		ID:        uuid.NewString(),
		Type:      domain.MessageResponse,
		Content:   fmt.Sprintf("You asked: %s", text),
		Timestamp: time.Now(),
	})

	s.asst.SetUserMessage(text)
	s.scheduleAdHocReminderLocked(text)

	seq := s.seq
	time.AfterFunc(s.timings.ResponseDelay, func() { s.fireForcedResponse(seq) })
	return nil
}

// UpdateSettings swaps the configuration for the scheduler and, when a call
// is active, the running policy engine. Takes effect on the next decision.
func (s *Scheduler) UpdateSettings(settings domain.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
	if s.asst != nil {
		s.asst.UpdateSettings(settings)
	}
	s.logger.Info("Settings updated", "mode", settings.Mode, "topics", len(settings.Topics))
}

// Settings returns the configuration currently in effect.
func (s *Scheduler) Settings() domain.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// Snapshot returns the current call state and a copy of the conversation
// (nil when no call has happened yet).
func (s *Scheduler) Snapshot() (domain.CallState, *domain.Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.conv.Clone()
}

// Shutdown stops any active call and cancels all timers. Used on server
// shutdown.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == domain.CallActive {
		s.teardownLocked()
		now := time.Now()
		s.conv.EndTime = &now
	}
	if s.idleTimer != nil {
		s.idleTimer.Stop()
		s.idleTimer = nil
	}
	s.setStateLocked(domain.CallIdle)
}

// onSpeech receives results from the speech source.
func (s *Scheduler) onSpeech(res speech.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.CallActive {
		return
	}

	if !res.Final {
		// Interim results reach the frontend but are never persisted.
		s.notifier.Publish(Event{Type: EventInterim, Interim: &res})
		return
	}

	line := fmt.Sprintf("%s: %s", res.Speaker, res.Text)
	s.conv.AppendTranscript(line)
	s.asst.ObserveTranscript(line)
	s.notifier.Publish(Event{Type: EventTranscript, Line: line})

	mode := s.settings.Mode
	if mode == domain.ModeAssertive || (mode == domain.ModeSuggestive && s.rnd.Float64() > transcriptReactThreshold) {
		s.emitLocked("")
	}
}

// firePeriodic is the self-rescheduling message loop. It always reschedules
// while the call lives, even when emission fails or is suppressed, and
// re-reads the interval so mode changes apply on the next firing.
func (s *Scheduler) firePeriodic(seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.CallActive || s.seq != seq {
		return
	}

	if s.settings.Mode != domain.ModeSilent {
		s.emitLocked("")
	}

	s.messageTimer = time.AfterFunc(s.messageIntervalLocked(), func() { s.firePeriodic(seq) })
}

// fireMonitor restarts the speech source if it silently stopped.
func (s *Scheduler) fireMonitor(seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.CallActive || s.seq != seq {
		return
	}

	if s.source.Supported() && !s.source.Listening() {
		s.logger.Warn("Speech source not listening, restarting", "call_id", s.conv.ID)
		s.source.Start(s.onSpeech)
	}

	s.monitorTimer = time.AfterFunc(s.timings.MonitorInterval, func() { s.fireMonitor(seq) })
}

func (s *Scheduler) announceGoal(seq uint64, goal string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.CallActive || s.seq != seq {
		return
	}

	s.appendLocked(domain.Message{
		ID:        uuid.NewString(),
		Type:      domain.MessageReminder,
		Content:   domain.GoalMessagePrefix + goal,
		Timestamp: time.Now(),
	})
}

func (s *Scheduler) fireForcedResponse(seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.CallActive || s.seq != seq {
		return
	}
	s.emitLocked(domain.MessageResponse)
}

func (s *Scheduler) fireAdHocReminder(seq uint64, id, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.reminders, id)
	if s.state != domain.CallActive || s.seq != seq {
		return
	}

	s.appendLocked(domain.Message{
		ID:        uuid.NewString(),
		Type:      domain.MessageReminder,
		Content:   fmt.Sprintf("Reminder: %s", text),
		Timestamp: time.Now(),
	})
}

func (s *Scheduler) scheduleAdHocReminderLocked(text string) {
	m := adHocReminderPattern.FindStringSubmatch(text)
	if m == nil {
		return
	}
	minutes, err := strconv.Atoi(m[2])
	if err != nil || minutes <= 0 {
		return
	}

	id := uuid.NewString()
	reminderText := m[1]
	seq := s.seq
	delay := time.Duration(minutes) * s.timings.ReminderUnit
	s.reminders[id] = time.AfterFunc(delay, func() { s.fireAdHocReminder(seq, id, reminderText) })
	s.logger.Info("Ad-hoc reminder scheduled", "call_id", s.conv.ID, "delay", delay)
}

// emitLocked asks the engine for a message and appends it. A panic inside
// generation is contained here so the periodic loop never dies.
func (s *Scheduler) emitLocked(force domain.MessageType) {
	msg, err := s.generate(force)
	if err != nil {
		s.logger.Error("Message generation failed", "call_id", s.conv.ID, "error", err)
		return
	}
	s.appendLocked(msg)
}

func (s *Scheduler) generate(force domain.MessageType) (msg domain.Message, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("message generation panicked: %v", r)
		}
	}()
	return s.asst.GenerateResponse(force), nil
}

// teardownLocked releases everything the active call owns: the speech
// source and every pending timer, including the ad-hoc reminder registry.
// Bumps seq so in-flight callbacks become no-ops.
func (s *Scheduler) teardownLocked() {
	s.seq++
	s.source.Stop()

	for _, timer := range []*time.Timer{s.messageTimer, s.monitorTimer, s.goalTimer} {
		if timer != nil {
			timer.Stop()
		}
	}
	s.messageTimer, s.monitorTimer, s.goalTimer = nil, nil, nil

	for id, timer := range s.reminders {
		timer.Stop()
		delete(s.reminders, id)
	}
}

func (s *Scheduler) messageIntervalLocked() time.Duration {
	if s.settings.Mode == domain.ModeAssertive {
		return s.timings.AssertiveInterval
	}
	return s.timings.MessageInterval
}

func (s *Scheduler) appendLocked(msg domain.Message) {
	s.conv.Append(msg)
	s.notifier.Publish(Event{Type: EventMessage, Message: &msg})
}

func (s *Scheduler) setStateLocked(state domain.CallState) {
	s.state = state
	s.notifier.Publish(Event{Type: EventState, State: state})
}
