package speech

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"
)

const defaultSimulatedCadence = 3 * time.Second

// topicMentionThreshold: a draw above this makes the next line mention a
// configured topic instead of filler.
const topicMentionThreshold = 0.7

var simulatedSpeakers = []string{"You", "Them"}

var simulatedFiller = []string{
	"I think that's interesting.",
	"I'm not sure about that.",
	"Could you explain more?",
	"That makes sense.",
	"Let me think about it for a second.",
	"Right, I see what you mean.",
}

// Rand is the subset of math/rand used for phrase selection. *rand.Rand
// satisfies it; tests substitute a scripted implementation.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// Simulated synthesizes speaker-labeled transcript lines on a fixed cadence
// from a small phrase pool, occasionally mentioning one of the configured
// topics so topic tracking has something to chew on. It stands in for real
// capture when no microphone relay is connected.
type Simulated struct {
	cadence time.Duration
	topics  func() []string
	rnd     Rand
	logger  *slog.Logger

	mu        sync.Mutex
	listening bool
	stop      chan struct{}
}

// NewSimulated creates a simulated source. topics supplies the current
// topic and avoid-topic titles on each tick; rnd may be nil for a
// time-seeded generator; cadence <= 0 uses the default 3s.
func NewSimulated(cadence time.Duration, topics func() []string, rnd Rand, logger *slog.Logger) *Simulated {
	if cadence <= 0 {
		cadence = defaultSimulatedCadence
	}
	if topics == nil {
		topics = func() []string { return nil }
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Simulated{cadence: cadence, topics: topics, rnd: rnd, logger: logger}
}

// Supported always reports true; simulation needs no platform capability.
func (s *Simulated) Supported() bool { return true }

// Listening reports whether the tick loop is running.
func (s *Simulated) Listening() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listening
}

// Start launches the tick loop. Returns true even if already listening.
func (s *Simulated) Start(cb Callback) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listening {
		return true
	}
	s.listening = true
	s.stop = make(chan struct{})
	go s.run(cb, s.stop)
	s.logger.Debug("Simulated speech source started", "cadence", s.cadence)
	return true
}

// Stop halts the tick loop.
func (s *Simulated) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.listening {
		return
	}
	s.listening = false
	close(s.stop)
	s.logger.Debug("Simulated speech source stopped")
}

func (s *Simulated) run(cb Callback, stop chan struct{}) {
	ticker := time.NewTicker(s.cadence)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			cb(s.nextResult())
		}
	}
}

func (s *Simulated) nextResult() Result {
	// Fetch topics before taking the lock: the supplier may itself lock the
	// scheduler, which locks this source when stopping.
	topics := s.topics()

	s.mu.Lock()
	defer s.mu.Unlock()

	speaker := simulatedSpeakers[s.rnd.Intn(len(simulatedSpeakers))]
	if len(topics) > 0 && s.rnd.Float64() > topicMentionThreshold {
		topic := topics[s.rnd.Intn(len(topics))]
		lines := []string{
			fmt.Sprintf("I wanted to talk about %s.", topic),
			fmt.Sprintf("What do you think about %s?", topic),
			fmt.Sprintf("Have you heard about the %s?", topic),
		}
		return Result{Speaker: speaker, Text: lines[s.rnd.Intn(len(lines))], Final: true}
	}

	return Result{Speaker: speaker, Text: simulatedFiller[s.rnd.Intn(len(simulatedFiller))], Final: true}
}
