package dispatcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/elchinoo/colt/internal/dbclient"
	"github.com/elchinoo/colt/internal/logging"
	"github.com/elchinoo/colt/internal/pipeline"
	"github.com/elchinoo/colt/internal/pipeline/errs"
	"github.com/elchinoo/colt/internal/pipeline/queue"
	"github.com/elchinoo/colt/pkg/types"
)

// failingSubmitExecutor fails every Submit call outright, the way a
// dropped connection or a prepared-statement rejection would.
type failingSubmitExecutor struct{}

func (failingSubmitExecutor) Submit(context.Context, *types.Query, []any) (dbclient.ResultHandle, error) {
	return nil, errors.New("connection reset")
}

func (failingSubmitExecutor) Close() {}

func TestRunSubmitsAndEmitsPendingResponse(t *testing.T) {
	in := queue.New[pipeline.BoundQuery](10)
	out := queue.New[pipeline.PendingResponse](10)
	signals := pipeline.NewSignals()
	w := New(in, out, signals, logging.NewDefault())
	w.Attach(dbclient.NewFake(func(int) time.Duration { return time.Millisecond }, nil))

	in.Send(pipeline.BoundQuery{
		WorkloadName: "inserts",
		QueryIndex:   0,
		Kind:         types.QueryInsert,
		Table:        "ks@users",
		Stmt:         "insert into ks.users (id) values (?)",
		Values:       []any{1},
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	resp, ok := out.Recv(nil)
	if !ok {
		t.Fatal("expected a PendingResponse on the output queue")
	}
	if resp.Table != "ks@users" || !resp.IsInsert {
		t.Errorf("unexpected PendingResponse: %+v", resp)
	}
	if err := resp.Handle.Await(ctx); err != nil {
		t.Errorf("Handle.Await() error = %v", err)
	}

	signals.TriggerShutdown()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not exit after shutdown")
	}
}

func TestRunForwardsSubmitErrorAsFailedResponseInsteadOfShuttingDown(t *testing.T) {
	in := queue.New[pipeline.BoundQuery](10)
	out := queue.New[pipeline.PendingResponse](10)
	signals := pipeline.NewSignals()
	w := New(in, out, signals, logging.NewDefault())
	w.Attach(failingSubmitExecutor{})

	in.Send(pipeline.BoundQuery{Table: "ks@users", Kind: types.QueryInsert}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	resp, ok := out.Recv(nil)
	if !ok {
		t.Fatal("expected a PendingResponse to be forwarded despite the Submit error")
	}
	if err := resp.Handle.Await(ctx); !errors.Is(err, errs.ErrDBSubmit) {
		t.Errorf("Handle.Await() error = %v, want wrapped ErrDBSubmit", err)
	}
	if signals.IsShutdown() {
		t.Error("a Submit error must not trigger pipeline shutdown")
	}

	signals.TriggerShutdown()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not exit after shutdown")
	}
}

func TestRunRespectsOutputBackpressure(t *testing.T) {
	in := queue.New[pipeline.BoundQuery](1)
	out := queue.New[pipeline.PendingResponse](1)
	signals := pipeline.NewSignals()
	w := New(in, out, signals, logging.NewDefault())
	w.Attach(dbclient.NewFake(func(int) time.Duration { return 0 }, nil))

	// Fill the output queue (buffer capacity 2*target=2) past target=1 so
	// AboveTarget() is true.
	for i := 0; i < 2; i++ {
		out.Send(pipeline.PendingResponse{}, nil)
	}
	if !out.AboveTarget() {
		t.Fatal("expected output queue to be above target")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not exit on context cancellation while backpressured")
	}
}
