// Package collector implements the LatencyCollector stage: it awaits each
// PendingResponse, classifies success/failure, buckets successful latencies
// per wall-clock second, commits them into the shared latency log on second
// rollover, and maintains the per-table inserted counters.
package collector

import (
	"context"
	"time"

	"github.com/elchinoo/colt/internal/latencylog"
	"github.com/elchinoo/colt/internal/logging"
	"github.com/elchinoo/colt/internal/pipeline"
	"github.com/elchinoo/colt/internal/pipeline/queue"
)

const tick = 10 * time.Millisecond

// QueueDwellThreshold is the configured maximum acceptable queue-dwell
// before a "need-more-collectors" signal is raised. Exported so the
// supervisor/config layer can override it from config; defaults to 500ms.
var QueueDwellThreshold = 500 * time.Millisecond

// Worker is one LatencyCollector instance.
type Worker struct {
	in       *queue.Queue[pipeline.PendingResponse]
	log      *latencylog.Log
	counters *pipeline.InsertedCounters
	signals  *pipeline.Signals
	logger   logging.Logger

	lastSecond int64
	batch      []latencylog.Entry
}

// New constructs a collector Worker.
func New(in *queue.Queue[pipeline.PendingResponse], log *latencylog.Log, counters *pipeline.InsertedCounters, signals *pipeline.Signals, logger logging.Logger) *Worker {
	return &Worker{in: in, log: log, counters: counters, signals: signals, logger: logger}
}

// Run executes this stage's worker loop: the four numbered steps of the
// LatencyCollector's per-token protocol, repeated until shutdown.
func (w *Worker) Run(ctx context.Context) error {
	for {
		if w.signals.IsShutdown() {
			w.flush()
			return nil
		}

		resp, ok := w.in.Recv(w.signals.Done())
		if !ok {
			w.flush()
			return nil
		}

		w.step1QueueDwell(resp)

		err := resp.Handle.Await(ctx)
		now := time.Now()
		w.step2RolloverIfNeeded(now)

		if err != nil {
			w.logger.Error("collector: query failed", err, logging.Fields.String("table", resp.Table))
		} else {
			w.step3AppendSuccess(now.Sub(resp.SubmitTime), resp)
		}
		w.step4Counters(resp, err)
	}
}

// step1QueueDwell raises NeedMoreCollectors if this token sat in the
// pending-response queue too long, or if the queue itself is over target.
func (w *Worker) step1QueueDwell(resp pipeline.PendingResponse) {
	dwell := time.Since(resp.SubmitTime)
	if dwell > QueueDwellThreshold || w.in.AboveTarget() {
		w.signals.NeedMoreCollectors.Store(true)
	}
}

// step2RolloverIfNeeded commits the local batch under the previous second's
// key once wall-clock time has advanced to a new second.
func (w *Worker) step2RolloverIfNeeded(now time.Time) {
	second := now.Unix()
	if w.lastSecond == 0 {
		w.lastSecond = second
		return
	}
	if second != w.lastSecond && len(w.batch) > 0 {
		w.log.Commit(w.lastSecond, w.batch)
		w.batch = nil
	}
	w.lastSecond = second
}

func (w *Worker) step3AppendSuccess(latency time.Duration, resp pipeline.PendingResponse) {
	w.batch = append(w.batch, latencylog.Entry{
		Duration:   latency,
		Workload:   resp.WorkloadName,
		QueryIndex: resp.QueryIndex,
	})
}

// step4Counters increments the table's Inserted counter on a successful
// insert, or logs a warning on a failed one. The bitmap already reflects the
// insert as "attempted" the moment it was scheduled, so a failed insert
// means real DB state can lag the ordinal space — an accepted approximation.
func (w *Worker) step4Counters(resp pipeline.PendingResponse, err error) {
	if !resp.IsInsert {
		return
	}
	if err == nil {
		w.counters.Increment(resp.Table)
		return
	}
	w.logger.Warn("collector: insert failed, ordinal space now ahead of actual DB state",
		logging.Fields.String("table", resp.Table),
		logging.Fields.Error(err),
	)
}

// flush commits any remaining batched entries on shutdown so the final
// partial second of data isn't silently dropped.
func (w *Worker) flush() {
	if len(w.batch) == 0 {
		return
	}
	w.log.Commit(w.lastSecond, w.batch)
	w.batch = nil
}
