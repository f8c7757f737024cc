// Package speech provides the transcript source abstraction: a restartable
// stream of interim and final speech results backing the call scheduler.
package speech

// Result is a single speech recognition event. Interim results may be
// superseded by a later final result for the same utterance and are never
// persisted to the transcript.
type Result struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
	Final   bool   `json:"final"`
}

// Callback receives speech results. Implementations of Source must invoke
// callbacks one at a time, never concurrently.
type Callback func(Result)

// Source produces speech results until stopped. Only one call owns a source
// at a time; the owner must Stop it on every exit path.
type Source interface {
	// Supported reports whether this source can deliver results at all.
	Supported() bool

	// Listening reports whether the source is currently delivering results.
	Listening() bool

	// Start begins delivery to cb. Returns false if the source could not
	// start; callers fall back to degraded messaging rather than failing
	// the call.
	Start(cb Callback) bool

	// Stop halts delivery. Safe to call when not listening.
	Stop()
}
