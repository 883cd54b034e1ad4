package readiness

import "sync"

// Signal identifies one readiness signal source
type Signal int

const (
	SignalNavigation Signal = iota
	SignalDOMMutation
	SignalNetworkActivity
	SignalLoad
	SignalCustom
)

// String returns the signal name for logging
func (s Signal) String() string {
	switch s {
	case SignalNavigation:
		return "navigation"
	case SignalDOMMutation:
		return "dom-mutation"
	case SignalNetworkActivity:
		return "network-activity"
	case SignalLoad:
		return "load"
	case SignalCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// Bus fans readiness signals out to subscribers. Publishing is synchronous;
// the single control thread model means handlers run inline and fast.
type Bus struct {
	mu   sync.Mutex
	subs map[Signal][]func(payload string)
}

// NewBus creates an empty signal bus
func NewBus() *Bus {
	return &Bus{subs: make(map[Signal][]func(payload string))}
}

// Subscribe registers a handler for a signal
func (b *Bus) Subscribe(sig Signal, fn func(payload string)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[sig] = append(b.subs[sig], fn)
}

// Publish delivers a signal to every subscriber
func (b *Bus) Publish(sig Signal, payload string) {
	b.mu.Lock()
	handlers := append([]func(string){}, b.subs[sig]...)
	b.mu.Unlock()

	for _, fn := range handlers {
		fn(payload)
	}
}
