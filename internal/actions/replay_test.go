package actions

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ciciliostudio/revisit/internal/session"
)

// fakeRunner records dispatched calls and fails on configured selectors
type fakeRunner struct {
	calls   []string
	failOn  map[string]error
	lastNav time.Duration
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{failOn: make(map[string]error)}
}

func (f *fakeRunner) call(op, selector string) error {
	f.calls = append(f.calls, fmt.Sprintf("%s %s", op, selector))
	if err, ok := f.failOn[selector]; ok {
		return err
	}
	return nil
}

func (f *fakeRunner) Click(selector string) error       { return f.call("click", selector) }
func (f *fakeRunner) Fill(selector, value string) error { return f.call("fill", selector) }
func (f *fakeRunner) Submit(selector string) error      { return f.call("submit", selector) }
func (f *fakeRunner) Focus(selector string) error       { return f.call("focus", selector) }

func (f *fakeRunner) SelectOption(selector, value string) error {
	return f.call("select", selector)
}

func (f *fakeRunner) SetChecked(selector string, checked bool) error {
	return f.call(fmt.Sprintf("checked=%v", checked), selector)
}

func (f *fakeRunner) WaitVisible(selector string, timeout time.Duration) error {
	return f.call("wait", selector)
}

func (f *fakeRunner) WaitForNavigation(timeout time.Duration) error {
	f.lastNav = timeout
	return f.call("wait-nav", "")
}

func TestExecuteSequence_FailFast(t *testing.T) {
	runner := newFakeRunner()
	runner.failOn["#email"] = errors.New("element not found")

	rec := session.NewRecord("test")
	rec.Recording = true
	rec.RecordAction(session.Action{Type: "click", Selector: "#open-form"})
	rec.RecordAction(session.Action{Type: "type", Selector: "#email", Value: "a@b.c"})
	rec.RecordAction(session.Action{Type: "click", Selector: "#submit"})

	err := NewReplayer(runner, time.Second).ExecuteSequence(rec)
	require.Error(t, err)

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, 1, stepErr.Index)
	assert.Equal(t, "type", stepErr.Action.Type)

	// The failing step stops the sequence; the third action never runs
	assert.Equal(t, []string{"click #open-form", "fill #email"}, runner.calls)
}

func TestExecuteSequence_AllPass(t *testing.T) {
	runner := newFakeRunner()

	rec := session.NewRecord("test")
	rec.Recording = true
	rec.RecordAction(session.Action{Type: "click", Selector: "#a"})
	rec.RecordAction(session.Action{Type: "check", Selector: "#tos"})
	rec.RecordAction(session.Action{Type: "uncheck", Selector: "#spam"})
	rec.RecordAction(session.Action{Type: "wait-nav"})

	err := NewReplayer(runner, time.Second).ExecuteSequence(rec)
	require.NoError(t, err)
	assert.Equal(t, []string{"click #a", "checked=true #tos", "checked=false #spam", "wait-nav "}, runner.calls)
}

func TestExecuteSequence_HonorsDelay(t *testing.T) {
	runner := newFakeRunner()

	rec := session.NewRecord("test")
	rec.Recording = true
	rec.RecordAction(session.Action{Type: "click", Selector: "#a", DelayMs: 60})

	start := time.Now()
	err := NewReplayer(runner, time.Second).ExecuteSequence(rec)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}

func TestExecute_UnrecognizedTypeFails(t *testing.T) {
	runner := newFakeRunner()

	err := Execute(runner, session.Action{Type: "hover", Selector: "#a"}, time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unrecognized action type")
	assert.Empty(t, runner.calls, "unknown actions must not reach the engine")
}

func TestExecute_MissingSelectorRejectedBeforeDispatch(t *testing.T) {
	runner := newFakeRunner()

	err := Execute(runner, session.Action{Type: "click"}, time.Second)
	require.Error(t, err)
	assert.Empty(t, runner.calls)
}

func TestExecute_WaitTimeoutOverride(t *testing.T) {
	runner := newFakeRunner()

	err := Execute(runner, session.Action{Type: "wait-nav", Value: "250"}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, runner.lastNav)
}

func TestRecorder_AppendsVerbatimWhileRecording(t *testing.T) {
	runner := newFakeRunner()
	rec := session.NewRecord("test")
	r := NewRecorder(rec, runner, time.Second)

	// Not recording yet: executed but not appended
	require.NoError(t, r.Click("#before"))
	assert.Empty(t, rec.RecordedActions)

	r.Start()
	require.NoError(t, r.Click("#login"))
	require.NoError(t, r.Type("#email", "a@b.c"))
	r.Stop()

	require.NoError(t, r.Click("#after"))

	require.Len(t, rec.RecordedActions, 2)
	assert.Equal(t, session.Action{Type: "click", Selector: "#login"}, rec.RecordedActions[0])
	assert.Equal(t, session.Action{Type: "type", Selector: "#email", Value: "a@b.c"}, rec.RecordedActions[1])
}

func TestRecorder_FailedStepStillRecorded(t *testing.T) {
	runner := newFakeRunner()
	runner.failOn["#broken"] = errors.New("boom")

	rec := session.NewRecord("test")
	r := NewRecorder(rec, runner, time.Second)
	r.Start()

	require.Error(t, r.Click("#broken"))
	require.Len(t, rec.RecordedActions, 1)
}

func TestParseKind(t *testing.T) {
	for _, valid := range []string{"click", "type", "submit", "select", "check", "uncheck", "focus", "wait", "wait-nav"} {
		_, ok := ParseKind(valid)
		assert.True(t, ok, valid)
	}

	_, ok := ParseKind("drag")
	assert.False(t, ok)
}
