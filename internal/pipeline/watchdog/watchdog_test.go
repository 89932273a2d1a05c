package watchdog

import (
	"testing"

	"github.com/elchinoo/colt/internal/latencylog"
	"github.com/elchinoo/colt/internal/logging"
	"github.com/elchinoo/colt/internal/pipeline"
	"github.com/elchinoo/colt/pkg/types"
)

func newTestWatchdog(cfg types.Config) *Watchdog {
	log := latencylog.New()
	signals := pipeline.NewSignals()
	return New(log, signals, cfg, logging.NewDefault())
}

func TestEvaluateMaxLatencyRequiresConsecutiveSeconds(t *testing.T) {
	var cfg types.Config
	cfg.TerminationConditions.Latency.Max = 100
	cfg.TerminationConditions.Latency.Consecutive = 3
	wd := newTestWatchdog(cfg)

	high := latencylog.Stats{MeanMS: 200, Count: 10}
	if reason := wd.evaluate(high); reason != "" {
		t.Fatalf("evaluate() = %q on 1st breach, want empty", reason)
	}
	if reason := wd.evaluate(high); reason != "" {
		t.Fatalf("evaluate() = %q on 2nd breach, want empty", reason)
	}
	if reason := wd.evaluate(high); reason != "" {
		t.Fatalf("evaluate() = %q on 3rd breach, want empty", reason)
	}
	if reason := wd.evaluate(high); reason != "max_latency" {
		t.Fatalf("evaluate() = %q on 4th breach, want max_latency (fires after consec_latency+1 seconds)", reason)
	}
}

func TestEvaluateMaxLatencyResetsOnRecovery(t *testing.T) {
	var cfg types.Config
	cfg.TerminationConditions.Latency.Max = 100
	cfg.TerminationConditions.Latency.Consecutive = 1
	wd := newTestWatchdog(cfg)

	wd.evaluate(latencylog.Stats{MeanMS: 200, Count: 10})
	wd.evaluate(latencylog.Stats{MeanMS: 50, Count: 10}) // recovers, resets counter
	if reason := wd.evaluate(latencylog.Stats{MeanMS: 200, Count: 10}); reason != "" {
		t.Fatalf("evaluate() = %q, want empty after a recovered second reset the counter", reason)
	}
}

func TestEvaluateThroughputDeclineRequiresConsecutiveSeconds(t *testing.T) {
	var cfg types.Config
	cfg.TerminationConditions.Queries.Consecutive = 2
	wd := newTestWatchdog(cfg)

	wd.evaluate(latencylog.Stats{Count: 100})
	if reason := wd.evaluate(latencylog.Stats{Count: 90}); reason != "" {
		t.Fatalf("evaluate() = %q on 1st decline, want empty", reason)
	}
	if reason := wd.evaluate(latencylog.Stats{Count: 80}); reason != "" {
		t.Fatalf("evaluate() = %q on 2nd consecutive decline, want empty", reason)
	}
	if reason := wd.evaluate(latencylog.Stats{Count: 70}); reason != "throughput_decline" {
		t.Fatalf("evaluate() = %q on 3rd consecutive decline, want throughput_decline (fires after consec_queries+1 seconds)", reason)
	}
}

func TestEvaluateThroughputDeclineIgnoresFirstSecond(t *testing.T) {
	var cfg types.Config
	cfg.TerminationConditions.Queries.Consecutive = 1
	wd := newTestWatchdog(cfg)

	// No prior count observed yet, so a decline can't be measured.
	if reason := wd.evaluate(latencylog.Stats{Count: 0}); reason != "" {
		t.Fatalf("evaluate() = %q on first-ever second, want empty", reason)
	}
}

func TestEvaluateMaxQueriesPerSecondIsOneShot(t *testing.T) {
	var cfg types.Config
	cfg.TerminationConditions.Queries.Max = 50
	wd := newTestWatchdog(cfg)

	if reason := wd.evaluate(latencylog.Stats{Count: 60}); reason != "max_queries_per_second" {
		t.Fatalf("evaluate() = %q, want max_queries_per_second on a single breaching second", reason)
	}
}

func TestEvaluateNoConditionsConfiguredNeverFires(t *testing.T) {
	wd := newTestWatchdog(types.Config{})
	for i := 0; i < 5; i++ {
		if reason := wd.evaluate(latencylog.Stats{MeanMS: 1e9, Count: 1}); reason != "" {
			t.Fatalf("evaluate() = %q with no termination conditions configured, want empty", reason)
		}
	}
}

func TestTickWithNoDataThisSecondDoesNotShutdown(t *testing.T) {
	wd := newTestWatchdog(types.Config{})
	wd.tick()
	if wd.signals.IsShutdown() {
		t.Fatal("tick() triggered shutdown with no latency data recorded")
	}
}
