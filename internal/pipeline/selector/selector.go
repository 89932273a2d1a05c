// Package selector implements the WorkloadSelector stage: weighted
// workload selection, per-query seed assignment, and the TableKeyState
// mutation that lets every later stage choose existing primary/cluster
// keys without coordinating on generated content.
package selector

import (
	"context"
	"fmt"
	"time"

	"github.com/elchinoo/colt/internal/logging"
	"github.com/elchinoo/colt/internal/pipeline"
	"github.com/elchinoo/colt/internal/pipeline/errs"
	"github.com/elchinoo/colt/internal/pipeline/queue"
	"github.com/elchinoo/colt/internal/randgen"
	"github.com/elchinoo/colt/internal/tablekey"
	"github.com/elchinoo/colt/pkg/types"
)

// tick is the shutdown-cancellable backpressure poll interval.
const tick = 10 * time.Millisecond

// Worker is one WorkloadSelector instance. Multiple Workers may run
// concurrently, each with its own RNG; they never share RNG state, only
// the table states.
type Worker struct {
	table       *WorkloadTable
	tableStates map[string]*tablekey.State // keyed by Query.Table ("ks@table")
	rng         *randgen.RNG
	out         *queue.Queue[pipeline.SelectedQuery]
	signals     *pipeline.Signals
	log         logging.Logger
}

// New constructs a selector Worker. seed deterministically derives this
// worker's private RNG stream; table and tableStates are shared read-only
// (tableStates internally synchronized) across every selector worker.
func New(table *WorkloadTable, tableStates map[string]*tablekey.State, seed uint64, out *queue.Queue[pipeline.SelectedQuery], signals *pipeline.Signals, log logging.Logger) *Worker {
	return &Worker{
		table:       table,
		tableStates: tableStates,
		rng:         randgen.New(seed),
		out:         out,
		signals:     signals,
		log:         log,
	}
}

// Run executes this stage's worker loop. WorkloadSelector has no upstream
// queue, so it never raises a need-more-upstream signal — only the
// output-queue backpressure check applies.
func (w *Worker) Run(ctx context.Context) error {
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

		if err := w.processOne(); err != nil {
			w.log.Error("selector: fatal error, triggering shutdown", err)
			w.signals.TriggerShutdown()
			return err
		}
	}
}

func (w *Worker) processOne() error {
	if w.table.RatioSum() <= 0 {
		return fmt.Errorf("selector: %w: workload ratio sum is zero", errs.ErrConfigInvalid)
	}

	r := int(w.rng.UniformInt(0, int64(w.table.RatioSum())))
	workloadName, wl := w.table.Pick(r)

	for queryIndex, q := range wl.Queries {
		state, ok := w.tableStates[q.Table]
		if !ok {
			return fmt.Errorf("selector: no TableKeyState registered for table %q", q.Table)
		}

		seeds, err := state.Resolve(q.Kind, w.rng, q.Chance)
		if err != nil {
			return err
		}

		attrs := make([]pipeline.AttributeSeed, 0, len(q.Attributes))
		for _, attr := range q.Attributes {
			var base uint64
			switch attr.Level {
			case types.LevelPartition:
				base = seeds.PartitionSeed
			case types.LevelCluster:
				base = seeds.ClusterSeed
			default: // types.LevelAttribute
				base = seeds.UpdateSeed
			}
			attrs = append(attrs, pipeline.AttributeSeed{
				Type: attr.Type,
				Seed: base + attr.Hash,
				Args: attr.Args,
			})
		}

		item := pipeline.SelectedQuery{
			WorkloadName: workloadName,
			QueryIndex:   queryIndex,
			Kind:         q.Kind,
			Table:        q.Table,
			Stmt:         q.Stmt,
			Attributes:   attrs,
		}
		if !w.out.Send(item, w.signals.Done()) {
			return nil
		}
	}
	return nil
}
