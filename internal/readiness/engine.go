// Package readiness aggregates low-level page signals (navigation, DOM
// mutation stability, network idle, custom predicates) into a single
// page-ready decision. Readiness is advisory: conditions that time out are
// logged as warnings and never block forward progress.
package readiness

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/ciciliostudio/revisit/internal/logging"
	"github.com/ciciliostudio/revisit/internal/session"
	"github.com/ciciliostudio/revisit/internal/wait"
)

// PageState tracks where a page is in its lifecycle
type PageState int

const (
	StateLoading PageState = iota
	StateReady
	StateStale
)

// String returns the state name for logging
func (s PageState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateStale:
		return "stale"
	default:
		return "unknown"
	}
}

// Evaluator is the script surface the readiness engine needs from the page
// engine
type Evaluator interface {
	Evaluate(script string) (string, error)
}

// Options holds the timing knobs for readiness decisions
type Options struct {
	LoadTimeout      time.Duration // hard cap on the base document-load wait
	DOMQuiet         time.Duration // no mutations for this long counts as stable
	NetworkIdle      time.Duration // no network activity for this long counts as idle
	SettleDelay      time.Duration // fixed delay applied after all conditions
	ConditionTimeout time.Duration // default per-condition timeout
}

// DefaultOptions returns the stock timing values
func DefaultOptions() Options {
	return Options{
		LoadTimeout:      10 * time.Second,
		DOMQuiet:         500 * time.Millisecond,
		NetworkIdle:      500 * time.Millisecond,
		SettleDelay:      500 * time.Millisecond,
		ConditionTimeout: 5 * time.Second,
	}
}

// Engine is the per-page readiness state machine. The page engine adapter
// feeds it events through the Notify methods; WaitForPageReady consumes them
// through the wait bridge.
type Engine struct {
	bridge *wait.Bridge
	eval   Evaluator
	bus    *Bus
	opts   Options

	mu           sync.Mutex
	state        PageState
	loaded       bool
	lastMutation time.Time
	lastNetwork  time.Time
	pending      int
}

// NewEngine creates a readiness engine bound to one page
func NewEngine(bridge *wait.Bridge, eval Evaluator, opts Options) *Engine {
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = 10 * time.Second
	}
	if opts.DOMQuiet <= 0 {
		opts.DOMQuiet = 500 * time.Millisecond
	}
	if opts.NetworkIdle <= 0 {
		opts.NetworkIdle = 500 * time.Millisecond
	}
	if opts.SettleDelay < 0 {
		opts.SettleDelay = 0
	}
	if opts.ConditionTimeout <= 0 {
		opts.ConditionTimeout = 5 * time.Second
	}

	e := &Engine{
		bridge: bridge,
		eval:   eval,
		bus:    NewBus(),
		opts:   opts,
		state:  StateLoading,
	}
	return e
}

// Bus returns the engine's signal bus for external observers
func (e *Engine) Bus() *Bus {
	return e.bus
}

// State returns the current page lifecycle state
func (e *Engine) State() PageState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// NotifyNavigation records a navigation. A ready page goes stale and the
// cycle starts over.
func (e *Engine) NotifyNavigation(url string) {
	e.mu.Lock()
	if e.state == StateReady {
		e.state = StateStale
		logging.Debug("Page went stale on navigation to %s", url)
	}
	e.state = StateLoading
	e.loaded = false
	e.lastMutation = time.Now()
	e.lastNetwork = time.Now()
	e.mu.Unlock()

	e.bus.Publish(SignalNavigation, url)
}

// NotifyLoad records that the document finished loading
func (e *Engine) NotifyLoad() {
	e.mu.Lock()
	e.loaded = true
	e.mu.Unlock()

	e.bus.Publish(SignalLoad, "")
}

// NotifyDOMMutation records DOM activity; stability requires a quiet window
// with none
func (e *Engine) NotifyDOMMutation() {
	e.mu.Lock()
	e.lastMutation = time.Now()
	e.mu.Unlock()

	e.bus.Publish(SignalDOMMutation, "")
}

// NotifyNetwork adjusts the pending request count. delta is +1 when a
// request starts and -1 when it finishes or fails.
func (e *Engine) NotifyNetwork(delta int) {
	e.mu.Lock()
	e.pending += delta
	if e.pending < 0 {
		e.pending = 0
	}
	e.lastNetwork = time.Now()
	e.mu.Unlock()

	e.bus.Publish(SignalNetworkActivity, strconv.Itoa(delta))
}

// NotifyCustom reports completion of a custom readiness check; it wakes the
// wait bridge
func (e *Engine) NotifyCustom(payload string) {
	e.bus.Publish(SignalCustom, payload)
	e.bridge.SignalComplete()
}

// DocumentLoaded reports whether the base load signal arrived, falling back
// to polling document.readyState when no event was observed
func (e *Engine) DocumentLoaded() bool {
	e.mu.Lock()
	loaded := e.loaded
	e.mu.Unlock()
	if loaded {
		return true
	}

	state, err := e.eval.Evaluate("document.readyState")
	if err != nil {
		return false
	}
	return state == "complete"
}

// DOMStable reports whether no mutation was observed within the quiet window
func (e *Engine) DOMStable() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return time.Since(e.lastMutation) >= e.opts.DOMQuiet
}

// NetworkIdle reports whether there are no pending requests and no recent
// network activity
func (e *Engine) NetworkIdle() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending == 0 && time.Since(e.lastNetwork) >= e.opts.NetworkIdle
}

// WaitForQuiescence blocks until the DOM is stable and the network idle, or
// the timeout elapses. Used before capturing state from a live page.
func (e *Engine) WaitForQuiescence(timeout time.Duration) bool {
	return e.bridge.WaitForCondition(func() bool {
		return e.DOMStable() && e.NetworkIdle()
	}, timeout)
}

// WaitForPageReady waits for the base document-load signal, then evaluates
// the record's ready conditions in order, then applies the settle delay.
// Conditions that time out warn and do not abort the rest; the call always
// returns true. This non-strict mode deliberately favors forward progress
// over strict correctness.
func (e *Engine) WaitForPageReady(rec *session.Record) bool {
	if !e.bridge.WaitForCondition(e.DocumentLoaded, e.opts.LoadTimeout) {
		logging.Warn("Document load not observed within %s, continuing anyway", e.opts.LoadTimeout)
	}

	for i, cond := range rec.ReadyConditions {
		timeout := e.opts.ConditionTimeout
		if cond.TimeoutMs > 0 {
			timeout = time.Duration(cond.TimeoutMs) * time.Millisecond
		}

		if ok := e.waitForCondition(cond, timeout); !ok {
			logging.Warn("Ready condition %d (%s %q) not satisfied within %s", i, cond.Kind, cond.Value, timeout)
		}
	}

	if e.opts.SettleDelay > 0 {
		time.Sleep(e.opts.SettleDelay)
	}

	e.mu.Lock()
	e.state = StateReady
	e.mu.Unlock()

	return true
}

// waitForCondition dispatches one ready condition by kind
func (e *Engine) waitForCondition(cond session.ReadyCondition, timeout time.Duration) bool {
	switch cond.Kind {
	case session.ConditionSelector:
		return e.bridge.WaitForCondition(func() bool {
			return e.selectorExists(cond.Value)
		}, timeout)

	case session.ConditionJSExpression:
		return e.bridge.WaitForCondition(func() bool {
			return e.evalPredicate(cond.Value)
		}, timeout)

	case session.ConditionCustom:
		// Fire once and await the completion signal; no polling. The script
		// is expected to report back through the engine's custom binding.
		// Arming before the evaluation keeps a callback that lands inside
		// the Evaluate call itself from being lost.
		e.bridge.Arm()
		if _, err := e.eval.Evaluate(cond.Value); err != nil {
			logging.Warn("Custom ready condition failed to start: %v", err)
			return false
		}
		return e.bridge.WaitForSignal(timeout)

	default:
		logging.Warn("Unknown ready condition kind %q", cond.Kind)
		return false
	}
}

// selectorExists polls for element presence via script evaluation
func (e *Engine) selectorExists(selector string) bool {
	script := fmt.Sprintf("String(document.querySelector(%s) !== null)", strconv.Quote(selector))
	result, err := e.eval.Evaluate(script)
	return err == nil && result == "true"
}

// evalPredicate normalizes an arbitrary expression to "true"/"false"
func (e *Engine) evalPredicate(expr string) bool {
	script := fmt.Sprintf("(function() { try { return String(Boolean(%s)); } catch (err) { return 'false'; } })()", expr)
	result, err := e.eval.Evaluate(script)
	return err == nil && result == "true"
}
