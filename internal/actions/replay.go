package actions

import (
	"fmt"
	"time"

	"github.com/ciciliostudio/revisit/internal/logging"
	"github.com/ciciliostudio/revisit/internal/session"
)

// StepError identifies the failing step of an action sequence
type StepError struct {
	Index  int
	Action session.Action
	Err    error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("action %d (%s %s) failed: %v", e.Index, e.Action.Type, e.Action.Selector, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Replayer replays a record's action sequence against a live page
type Replayer struct {
	runner  Runner
	timeout time.Duration // default timeout for wait-style actions
}

// NewReplayer creates a replayer. A zero timeout selects 5s for wait-style
// actions.
func NewReplayer(runner Runner, timeout time.Duration) *Replayer {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Replayer{runner: runner, timeout: timeout}
}

// ExecuteSequence replays the record's actions in order, honoring each
// action's delay before execution. The first failure stops the sequence and
// is reported as a StepError; later actions are never attempted.
func (p *Replayer) ExecuteSequence(rec *session.Record) error {
	return p.ExecuteActions(rec.RecordedActions)
}

// ExecuteActions replays an explicit action list with the same semantics as
// ExecuteSequence
func (p *Replayer) ExecuteActions(list []session.Action) error {
	for i, a := range list {
		if a.DelayMs > 0 {
			time.Sleep(time.Duration(a.DelayMs) * time.Millisecond)
		}

		if err := Execute(p.runner, a, p.timeout); err != nil {
			logging.Error("Action sequence stopped at step %d (%s %s): %v", i, a.Type, a.Selector, err)
			return &StepError{Index: i, Action: a, Err: err}
		}
		logging.Debug("Replayed action %d: %s %s", i, a.Type, a.Selector)
	}
	return nil
}

// Execute dispatches one action to the runner. Malformed actions are
// rejected before any engine interaction.
func Execute(runner Runner, a session.Action, timeout time.Duration) error {
	kind, ok := ParseKind(a.Type)
	if !ok {
		return fmt.Errorf("unrecognized action type %q", a.Type)
	}

	if needsSelector(kind) && a.Selector == "" {
		return fmt.Errorf("action %q requires a selector", a.Type)
	}

	switch kind {
	case KindClick:
		return runner.Click(a.Selector)
	case KindType:
		return runner.Fill(a.Selector, a.Value)
	case KindSubmit:
		return runner.Submit(a.Selector)
	case KindSelect:
		return runner.SelectOption(a.Selector, a.Value)
	case KindCheck:
		return runner.SetChecked(a.Selector, true)
	case KindUncheck:
		return runner.SetChecked(a.Selector, false)
	case KindFocus:
		return runner.Focus(a.Selector)
	case KindWait:
		return runner.WaitVisible(a.Selector, waitTimeout(a.Value, timeout))
	case KindWaitNav:
		return runner.WaitForNavigation(waitTimeout(a.Value, timeout))
	default:
		return fmt.Errorf("unrecognized action type %q", a.Type)
	}
}
