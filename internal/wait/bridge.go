// Package wait bridges the engine's callback-driven completion signals onto
// synchronous, timeout-bounded waits. It is the only place in the core that
// blocks the caller.
package wait

import (
	"sync"
	"time"
)

// DefaultPollInterval is the polling granularity used when none is configured.
// Observed wait durations are accurate to within one interval.
const DefaultPollInterval = 50 * time.Millisecond

// Bridge converts asynchronous completion callbacks into bounded waits.
//
// At most one wait owns the bridge at a time. A wait requested while another
// is active does not nest; it degrades to polling the completion flag at the
// configured interval until its own timeout, so reentrant call patterns stay
// correct at the cost of coarser responsiveness.
type Bridge struct {
	poll  time.Duration
	drain func()

	mu        sync.Mutex
	active    bool
	completed bool
	signal    chan struct{}
}

// NewBridge creates a bridge with the given polling interval. A zero or
// negative interval selects DefaultPollInterval.
func NewBridge(pollInterval time.Duration) *Bridge {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &Bridge{poll: pollInterval}
}

// PollInterval returns the configured polling interval
func (b *Bridge) PollInterval() time.Duration {
	return b.poll
}

// SetDrain installs a hook invoked on every poll tick while a wait is in
// progress. Engines that need their event queue pumped forward register it
// here; engines that deliver events on their own goroutines leave it unset.
func (b *Bridge) SetDrain(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.drain = fn
}

// Arm clears the completion flag ahead of dispatching an operation. Callers
// arm the bridge, fire the operation, then wait; a completion callback that
// lands anywhere in that window is kept, while signals left over from an
// earlier operation are discarded here rather than at wait entry.
func (b *Bridge) Arm() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.completed = false
}

// SignalComplete marks the pending operation complete. It is idempotent and
// safe to call from any completion callback; it wakes the owning wait if one
// exists.
func (b *Bridge) SignalComplete() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.completed = true
	if b.signal != nil {
		select {
		case b.signal <- struct{}{}:
		default:
		}
	}
}

// Completed reports whether a completion signal arrived since the bridge
// was last armed
func (b *Bridge) Completed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.completed
}

// WaitForSignal blocks until SignalComplete is called or the timeout
// elapses, and reports whether completion happened in time. The completion
// flag is cleared by Arm, not here, so a signal raised between dispatching
// the operation and entering the wait still counts.
func (b *Bridge) WaitForSignal(timeout time.Duration) bool {
	b.mu.Lock()
	if b.active {
		b.mu.Unlock()
		return b.pollCompletion(timeout)
	}
	if b.completed {
		b.mu.Unlock()
		return true
	}
	b.active = true
	b.signal = make(chan struct{}, 1)
	sig := b.signal
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.active = false
		b.signal = nil
		b.mu.Unlock()
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	ticker := time.NewTicker(b.poll)
	defer ticker.Stop()

	for {
		select {
		case <-sig:
			return true
		case <-timer.C:
			return false
		case <-ticker.C:
			b.drainPending()
		}
	}
}

// WaitForCondition evaluates the predicate immediately, returning true with
// no wait when it already holds. Otherwise the predicate is re-checked once
// per polling interval; the result is true only if it became true strictly
// before the timeout. Condition waits poll by construction, so they never
// contend for ownership of the signal channel.
func (b *Bridge) WaitForCondition(pred func() bool, timeout time.Duration) bool {
	if pred() {
		return true
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	ticker := time.NewTicker(b.poll)
	defer ticker.Stop()

	for {
		select {
		case <-timer.C:
			return false
		case <-ticker.C:
			b.drainPending()
			if pred() {
				return true
			}
		}
	}
}

// pollCompletion is the degraded path for a wait requested while another
// wait owns the bridge
func (b *Bridge) pollCompletion(timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	ticker := time.NewTicker(b.poll)
	defer ticker.Stop()

	for {
		select {
		case <-timer.C:
			return false
		case <-ticker.C:
			b.drainPending()
			if b.Completed() {
				return true
			}
		}
	}
}

func (b *Bridge) drainPending() {
	b.mu.Lock()
	drain := b.drain
	b.mu.Unlock()
	if drain != nil {
		drain()
	}
}
