package dbclient

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/elchinoo/colt/pkg/types"
)

// ErrFakeSubmitFailed is returned by FakeExecutor when its configured
// FailFunc reports a simulated failure.
var ErrFakeSubmitFailed = errors.New("dbclient: fake executor simulated failure")

// FakeExecutor is a deterministic, in-memory Executor used by unit and
// end-to-end tests: LatencyFunc and FailFunc let a test drive exact,
// reproducible per-call latencies and failures without a live cluster.
type FakeExecutor struct {
	mu    sync.Mutex
	calls int

	// LatencyFunc returns the simulated response latency for the
	// callIndex-th Submit call (0-based). Required.
	LatencyFunc func(callIndex int) time.Duration

	// FailFunc reports whether the callIndex-th call should fail.
	// Optional; nil means every call succeeds.
	FailFunc func(callIndex int) bool
}

// NewFake constructs a FakeExecutor with the given latency function and an
// optional failure function.
func NewFake(latencyFunc func(int) time.Duration, failFunc func(int) bool) *FakeExecutor {
	return &FakeExecutor{LatencyFunc: latencyFunc, FailFunc: failFunc}
}

// Calls returns the number of Submit calls observed so far.
func (e *FakeExecutor) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func (e *FakeExecutor) Submit(ctx context.Context, _ *types.Query, _ []any) (ResultHandle, error) {
	e.mu.Lock()
	idx := e.calls
	e.calls++
	e.mu.Unlock()

	delay := e.LatencyFunc(idx)
	fail := e.FailFunc != nil && e.FailFunc(idx)

	fut := newFuture()
	go func() {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			fut.finish(ctx.Err())
			return
		}
		if fail {
			fut.finish(ErrFakeSubmitFailed)
			return
		}
		fut.finish(nil)
	}()
	return fut, nil
}

func (e *FakeExecutor) Close() {}
