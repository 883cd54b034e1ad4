package actions

import (
	"time"

	"github.com/ciciliostudio/revisit/internal/session"
)

// Recorder is the recording surface for primitive operations. Every action
// invoked through it is executed against the runner and, while the record's
// recording flag is set, appended verbatim to the record's action list.
// Appending is a pure side channel and never changes execution semantics.
type Recorder struct {
	rec     *session.Record
	runner  Runner
	timeout time.Duration
}

// NewRecorder creates a recorder bound to a record and runner
func NewRecorder(rec *session.Record, runner Runner, timeout time.Duration) *Recorder {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Recorder{rec: rec, runner: runner, timeout: timeout}
}

// Start enables recording on the underlying record
func (r *Recorder) Start() {
	r.rec.Recording = true
}

// Stop disables recording
func (r *Recorder) Stop() {
	r.rec.Recording = false
}

// Do executes one action and records it. The action is recorded as invoked,
// before the outcome is known, so a failed step still appears in the
// sequence exactly as the user issued it.
func (r *Recorder) Do(a session.Action) error {
	r.rec.RecordAction(a)
	return Execute(r.runner, a, r.timeout)
}

// Click clicks an element
func (r *Recorder) Click(selector string) error {
	return r.Do(session.Action{Type: string(KindClick), Selector: selector})
}

// Type fills a field with a value
func (r *Recorder) Type(selector, value string) error {
	return r.Do(session.Action{Type: string(KindType), Selector: selector, Value: value})
}

// Submit submits a form
func (r *Recorder) Submit(selector string) error {
	return r.Do(session.Action{Type: string(KindSubmit), Selector: selector})
}

// Select picks an option in a select element
func (r *Recorder) Select(selector, value string) error {
	return r.Do(session.Action{Type: string(KindSelect), Selector: selector, Value: value})
}

// Check checks a checkbox
func (r *Recorder) Check(selector string) error {
	return r.Do(session.Action{Type: string(KindCheck), Selector: selector})
}

// Uncheck unchecks a checkbox
func (r *Recorder) Uncheck(selector string) error {
	return r.Do(session.Action{Type: string(KindUncheck), Selector: selector})
}

// Focus focuses an element
func (r *Recorder) Focus(selector string) error {
	return r.Do(session.Action{Type: string(KindFocus), Selector: selector})
}

// Wait waits for an element to become visible
func (r *Recorder) Wait(selector string) error {
	return r.Do(session.Action{Type: string(KindWait), Selector: selector})
}

// WaitNav waits for a navigation to complete
func (r *Recorder) WaitNav() error {
	return r.Do(session.Action{Type: string(KindWaitNav)})
}
