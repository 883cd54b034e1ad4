package wait

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const testPoll = 20 * time.Millisecond

func TestWaitForCondition_AlreadyTrue(t *testing.T) {
	b := NewBridge(testPoll)

	start := time.Now()
	ok := b.WaitForCondition(func() bool { return true }, time.Second)
	elapsed := time.Since(start)

	assert.True(t, ok)
	assert.Less(t, elapsed, testPoll, "already-true predicate must not wait")
}

func TestWaitForCondition_BecomesTrue(t *testing.T) {
	b := NewBridge(testPoll)

	var flag atomic.Bool
	time.AfterFunc(60*time.Millisecond, func() { flag.Store(true) })

	ok := b.WaitForCondition(flag.Load, time.Second)
	assert.True(t, ok)
}

func TestWaitForCondition_Timeout(t *testing.T) {
	b := NewBridge(testPoll)

	start := time.Now()
	ok := b.WaitForCondition(func() bool { return false }, 200*time.Millisecond)
	elapsed := time.Since(start)

	assert.False(t, ok)
	assert.GreaterOrEqual(t, elapsed, 200*time.Millisecond)
	assert.Less(t, elapsed, 200*time.Millisecond+4*testPoll, "timeout overshoot beyond tolerance")
}

func TestWaitForSignal_TimesOutWithoutSignal(t *testing.T) {
	b := NewBridge(testPoll)

	start := time.Now()
	ok := b.WaitForSignal(200 * time.Millisecond)
	elapsed := time.Since(start)

	assert.False(t, ok)
	assert.GreaterOrEqual(t, elapsed, 200*time.Millisecond)
	assert.Less(t, elapsed, 200*time.Millisecond+4*testPoll)
}

func TestWaitForSignal_WokenBySignal(t *testing.T) {
	b := NewBridge(testPoll)

	time.AfterFunc(50*time.Millisecond, b.SignalComplete)

	start := time.Now()
	ok := b.WaitForSignal(time.Second)
	elapsed := time.Since(start)

	assert.True(t, ok)
	assert.Less(t, elapsed, 500*time.Millisecond)
}

func TestSignalComplete_Idempotent(t *testing.T) {
	b := NewBridge(testPoll)

	time.AfterFunc(30*time.Millisecond, func() {
		b.SignalComplete()
		b.SignalComplete()
		b.SignalComplete()
	})

	assert.True(t, b.WaitForSignal(time.Second))

	// Arming the next operation discards stale signals; they must not
	// satisfy its wait.
	b.Arm()
	assert.False(t, b.WaitForSignal(100*time.Millisecond))
}

func TestWaitForSignal_SignalBeforeWaitIsKept(t *testing.T) {
	b := NewBridge(testPoll)

	b.Arm()
	b.SignalComplete()

	start := time.Now()
	ok := b.WaitForSignal(time.Second)
	elapsed := time.Since(start)

	assert.True(t, ok, "signal raised between arm and wait must be observed")
	assert.Less(t, elapsed, testPoll, "pre-signalled wait must not block")
}

func TestArm_DiscardsStaleSignal(t *testing.T) {
	b := NewBridge(testPoll)

	b.SignalComplete()
	b.Arm()

	assert.False(t, b.Completed())
	assert.False(t, b.WaitForSignal(100*time.Millisecond))
}

func TestWaitForSignal_ConcurrentWaitDegradesToPolling(t *testing.T) {
	b := NewBridge(testPoll)

	var wg sync.WaitGroup
	var ownerOK, nestedOK atomic.Bool

	wg.Add(1)
	go func() {
		defer wg.Done()
		ownerOK.Store(b.WaitForSignal(time.Second))
	}()

	// Let the first wait take ownership
	time.Sleep(2 * testPoll)

	wg.Add(1)
	go func() {
		defer wg.Done()
		nestedOK.Store(b.WaitForSignal(time.Second))
	}()

	time.Sleep(2 * testPoll)
	b.SignalComplete()
	wg.Wait()

	assert.True(t, ownerOK.Load(), "owning wait should be woken")
	assert.True(t, nestedOK.Load(), "degraded wait should observe the completion flag")
}

func TestWaitForCondition_DrainHookRuns(t *testing.T) {
	b := NewBridge(testPoll)

	var drains atomic.Int32
	b.SetDrain(func() { drains.Add(1) })

	b.WaitForCondition(func() bool { return false }, 100*time.Millisecond)

	assert.Greater(t, drains.Load(), int32(0), "drain hook should run on poll ticks")
}
