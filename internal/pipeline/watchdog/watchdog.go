// Package watchdog implements the termination-condition evaluator: once
// per wall-clock second it reads the previous second's latency log entry,
// logs its percentiles, and decides whether the run should stop.
package watchdog

import (
	"context"
	"time"

	"github.com/elchinoo/colt/internal/latencylog"
	"github.com/elchinoo/colt/internal/logging"
	"github.com/elchinoo/colt/internal/pipeline"
	"github.com/elchinoo/colt/pkg/types"
)

// Watchdog evaluates the three termination conditions from
// types.Config.TerminationConditions against latencylog.Log, once per
// second, and triggers shutdown when one fires.
type Watchdog struct {
	log     *latencylog.Log
	signals *pipeline.Signals
	logger  logging.Logger
	cfg     types.Config

	consecLatency int
	consecDecline int
	lastCount     int64
	haveLastCount bool
}

// New constructs a Watchdog.
func New(log *latencylog.Log, signals *pipeline.Signals, cfg types.Config, logger logging.Logger) *Watchdog {
	return &Watchdog{log: log, signals: signals, cfg: cfg, logger: logger}
}

// Run ticks once per second until shutdown is triggered (by itself or any
// other stage) or ctx is cancelled.
func (wd *Watchdog) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-wd.signals.Done():
			return nil
		case <-ticker.C:
			wd.tick()
			if wd.signals.IsShutdown() {
				return nil
			}
		}
	}
}

func (wd *Watchdog) tick() {
	second := time.Now().Unix() - 1
	stats, ok := wd.log.Percentiles(second)
	wd.log.Prune(second - 300)
	if !ok {
		return
	}

	wd.logger.Info("watchdog: second summary",
		logging.Fields.Int64("second", second),
		logging.Fields.Int("count", stats.Count),
		logging.Fields.Float64("mean_latency_ms", stats.MeanMS),
		logging.Fields.Float64("p50_latency_ms", stats.P50MS),
		logging.Fields.Float64("p95_latency_ms", stats.P95MS),
		logging.Fields.Float64("p99_latency_ms", stats.P99MS),
	)

	if reason := wd.evaluate(stats); reason != "" {
		consecutive := wd.consecLatency
		if reason == "throughput_decline" {
			consecutive = wd.consecDecline
		}
		wd.logger.Warn("watchdog: termination condition met", logging.Fields.Termination(reason, consecutive)...)
		wd.signals.TriggerShutdown()
	}
}

// evaluate returns the name of the termination condition that fired, or ""
// if none did. Counter bookkeeping for consecutive-second conditions lives
// here so it only advances once per real tick.
func (wd *Watchdog) evaluate(stats latencylog.Stats) string {
	tc := wd.cfg.TerminationConditions

	if tc.Latency.Max > 0 && stats.MeanMS > tc.Latency.Max {
		wd.consecLatency++
	} else {
		wd.consecLatency = 0
	}
	if tc.Latency.Consecutive > 0 && wd.consecLatency > tc.Latency.Consecutive {
		return "max_latency"
	}

	if wd.haveLastCount && int64(stats.Count) < wd.lastCount {
		wd.consecDecline++
	} else {
		wd.consecDecline = 0
	}
	wd.lastCount = int64(stats.Count)
	wd.haveLastCount = true
	if tc.Queries.Consecutive > 0 && wd.consecDecline > tc.Queries.Consecutive {
		return "throughput_decline"
	}

	if tc.Queries.Max > 0 && int64(stats.Count) > tc.Queries.Max {
		return "max_queries_per_second"
	}

	return ""
}
