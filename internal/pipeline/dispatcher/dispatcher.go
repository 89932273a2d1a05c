// Package dispatcher implements the QueryDispatcher stage: it submits a
// BoundQuery to the database client and emits a PendingResponse carrying
// the asynchronous handle for the collector to await.
package dispatcher

import (
	"context"
	"fmt"
	"time"

	"github.com/elchinoo/colt/internal/dbclient"
	"github.com/elchinoo/colt/internal/logging"
	"github.com/elchinoo/colt/internal/pipeline"
	"github.com/elchinoo/colt/internal/pipeline/errs"
	"github.com/elchinoo/colt/internal/pipeline/queue"
	"github.com/elchinoo/colt/pkg/types"
)

const tick = 10 * time.Millisecond

// Worker is one QueryDispatcher instance. Its Executor is attached after
// construction via Attach, not passed to New, because opening a database
// session belongs to the worker's own goroutine/process, not its creator.
type Worker struct {
	executor dbclient.Executor
	in       *queue.Queue[pipeline.BoundQuery]
	out      *queue.Queue[pipeline.PendingResponse]
	signals  *pipeline.Signals
	log      logging.Logger
}

// New constructs a dispatcher Worker without an Executor attached yet.
// Call Attach before Run.
func New(in *queue.Queue[pipeline.BoundQuery], out *queue.Queue[pipeline.PendingResponse], signals *pipeline.Signals, log logging.Logger) *Worker {
	return &Worker{in: in, out: out, signals: signals, log: log}
}

// Attach binds the Executor this worker submits through. Must be called
// exactly once, from the worker's own goroutine, before Run.
func (w *Worker) Attach(executor dbclient.Executor) {
	w.executor = executor
}

// Run executes this stage's worker loop: pull a BoundQuery, submit it
// without blocking on the network, push the resulting PendingResponse.
// Backpressure against the pending-response queue is what actually throttles
// submission rate — Submit itself never blocks.
func (w *Worker) Run(ctx context.Context) error {
	defer w.executor.Close()

	for {
		for w.out.AboveTarget() && !w.signals.IsShutdown() {
			select {
			case <-time.After(tick):
			case <-w.signals.Done():
			case <-ctx.Done():
				return nil
			}
		}
		if w.signals.IsShutdown() {
			return nil
		}

		bq, ok := w.in.Recv(w.signals.Done())
		if !ok {
			return nil
		}

		if w.in.BelowLowWater() {
			w.signals.NeedMoreFabricators.Store(true)
		}

		query := &types.Query{Stmt: bq.Stmt, Kind: bq.Kind, Table: bq.Table}
		submitTime := submitTimestamp()
		handle, err := w.executor.Submit(ctx, query, bq.Values)
		if err != nil {
			w.log.Warn("dispatcher: submit failed, forwarding as a failed response",
				logging.Fields.String("table", bq.Table), logging.Fields.Error(fmt.Errorf("%w: %w", errs.ErrDBSubmit, err)))
			handle = dbclient.NewFailedResultHandle(fmt.Errorf("%w: %w", errs.ErrDBSubmit, err))
		}

		pending := pipeline.PendingResponse{
			WorkloadName: bq.WorkloadName,
			QueryIndex:   bq.QueryIndex,
			Table:        bq.Table,
			IsInsert:     bq.Kind == types.QueryInsert,
			SubmitTime:   submitTime,
			Handle:       handle,
		}
		if !w.out.Send(pending, w.signals.Done()) {
			return nil
		}
	}
}

// submitTimestamp is isolated behind a function var so tests can stub out
// wall-clock time without affecting determinism elsewhere in the pipeline;
// unlike RNG draws, submit timestamps are observational metadata, never an
// input to a deterministic computation.
var submitTimestamp = time.Now
