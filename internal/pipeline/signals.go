package pipeline

import "go.uber.org/atomic"

// Signals is the shared event/flag set every stage and the Supervisor
// coordinate through: a need-more-X flag per stage class plus the global
// shutdown flag, each an atomic.Bool so workers can set/clear them without
// a mutex. The Supervisor polls these once per tick; workers only ever set
// them.
type Signals struct {
	NeedMoreSelectors   atomic.Bool
	NeedMoreFabricators atomic.Bool
	NeedMoreDispatchers atomic.Bool
	NeedMoreCollectors  atomic.Bool

	Shutdown atomic.Bool

	// done is closed exactly once, when Shutdown first transitions to
	// true, giving every blocking select a cancellation channel instead of
	// having to poll Shutdown.Load() in a busy loop.
	done chan struct{}
}

// NewSignals returns a zero-valued Signals ready to use.
func NewSignals() *Signals {
	return &Signals{done: make(chan struct{})}
}

// Done returns a channel closed exactly once shutdown is triggered.
func (s *Signals) Done() <-chan struct{} {
	return s.done
}

// TriggerShutdown sets the shutdown flag and closes Done(), idempotently.
func (s *Signals) TriggerShutdown() {
	if s.Shutdown.CompareAndSwap(false, true) {
		close(s.done)
	}
}

// IsShutdown reports whether shutdown has been triggered.
func (s *Signals) IsShutdown() bool {
	return s.Shutdown.Load()
}
