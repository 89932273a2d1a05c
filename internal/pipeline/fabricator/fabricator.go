// Package fabricator implements the DataFabricator stage: it takes a
// SelectedQuery (a query plus per-attribute seeds) and materializes
// concrete bind values for every attribute, producing a BoundQuery ready
// for the QueryDispatcher to submit.
package fabricator

import (
	"context"
	"time"

	"github.com/elchinoo/colt/internal/logging"
	"github.com/elchinoo/colt/internal/pipeline"
	"github.com/elchinoo/colt/internal/pipeline/queue"
	"github.com/elchinoo/colt/internal/randgen"
)

const tick = 10 * time.Millisecond

// Worker is one DataFabricator instance. Each Worker owns a private RNG
// (reseeded per attribute via the Registry, so the RNG's stream identity
// only matters within a single Generate call) and shares the read-only
// generator Registry with every other fabricator worker.
type Worker struct {
	registry *randgen.Registry
	rng      *randgen.RNG
	in       *queue.Queue[pipeline.SelectedQuery]
	out      *queue.Queue[pipeline.BoundQuery]
	signals  *pipeline.Signals
	log      logging.Logger
}

// New constructs a fabricator Worker.
func New(registry *randgen.Registry, in *queue.Queue[pipeline.SelectedQuery], out *queue.Queue[pipeline.BoundQuery], signals *pipeline.Signals, log logging.Logger) *Worker {
	return &Worker{
		registry: registry,
		rng:      randgen.New(0), // reseeded per attribute before every draw
		in:       in,
		out:      out,
		signals:  signals,
		log:      log,
	}
}

// Run executes this stage's worker loop: pull a SelectedQuery, materialize
// every attribute's value, push the resulting BoundQuery, honoring both
// input starvation (nothing to do but wait) and output backpressure.
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

		sel, ok := w.in.Recv(w.signals.Done())
		if !ok {
			return nil
		}

		if w.in.BelowLowWater() {
			w.signals.NeedMoreSelectors.Store(true)
		}

		bound, err := w.bind(sel)
		if err != nil {
			w.log.Error("fabricator: fatal error, triggering shutdown", err)
			w.signals.TriggerShutdown()
			return err
		}

		if !w.out.Send(bound, w.signals.Done()) {
			return nil
		}
	}
}

func (w *Worker) bind(sel pipeline.SelectedQuery) (pipeline.BoundQuery, error) {
	values := make([]any, len(sel.Attributes))
	for i, attr := range sel.Attributes {
		v, err := w.registry.Generate(w.rng, attr.Type, attr.Seed, attr.Args)
		if err != nil {
			return pipeline.BoundQuery{}, err
		}
		values[i] = v
	}
	return pipeline.BoundQuery{
		WorkloadName: sel.WorkloadName,
		QueryIndex:   sel.QueryIndex,
		Kind:         sel.Kind,
		Table:        sel.Table,
		Stmt:         sel.Stmt,
		Values:       values,
	}, nil
}
