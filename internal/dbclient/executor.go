// Package dbclient wraps the database client library and its
// prepared-statement objects behind a narrow Executor interface. The
// dispatcher depends only on Executor/ResultHandle; gocql.go supplies the
// real Cassandra-backed implementation and fake.go a deterministic
// in-memory one for tests.
package dbclient

import (
	"context"

	"github.com/elchinoo/colt/pkg/types"
)

// ResultHandle is the pending-response side of an asynchronous submission.
// Await blocks the caller (the collector, not the dispatcher) until the
// response is known or ctx is cancelled.
type ResultHandle interface {
	Await(ctx context.Context) error
}

// Executor submits a query's bound values asynchronously. Submit must not
// block on the network — backpressure is the dispatcher's own loop's job,
// not Submit's: it defers the next pull while the pending-response queue
// is full.
type Executor interface {
	Submit(ctx context.Context, query *types.Query, boundValues []any) (ResultHandle, error)
	Close()
}

// future is the shared ResultHandle implementation for both the gocql and
// fake executors.
type future struct {
	done chan struct{}
	err  error
}

func newFuture() *future {
	return &future{done: make(chan struct{})}
}

// NewFailedResultHandle returns a ResultHandle whose Await immediately
// returns err, without ever touching the database. It lets a caller that
// fails before it has a real handle (e.g. the dispatcher when Submit
// itself errors) still deliver the failure through the normal
// response-token path instead of treating it as fatal to the pipeline.
func NewFailedResultHandle(err error) ResultHandle {
	fut := newFuture()
	fut.finish(err)
	return fut
}

func (f *future) finish(err error) {
	f.err = err
	close(f.done)
}

func (f *future) Await(ctx context.Context) error {
	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
