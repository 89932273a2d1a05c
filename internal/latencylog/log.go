// Package latencylog implements the shared latency log: a mutex-guarded
// mapping from unix second to the list of (duration, workload name, query
// index) entries observed in that second, plus the percentile/mean
// helpers the Watchdog reports from every tick.
package latencylog

import (
	"sort"
	"sync"
	"time"
)

// Entry is one completed query's latency observation.
type Entry struct {
	Duration   time.Duration
	Workload   string
	QueryIndex int
}

// Log is the shared, mutex-guarded latency log. Entries are appended only
// for successful responses; LatencyCollector commits a whole second's
// batch at once when the wall-clock second rolls over.
type Log struct {
	mu       sync.RWMutex
	bySecond map[int64][]Entry
}

// New returns an empty Log.
func New() *Log {
	return &Log{bySecond: make(map[int64][]Entry)}
}

// Commit appends batch under second's key. Called once per worker per
// second rollover, never per-item, so lock contention stays low even
// under many dispatcher/collector workers.
func (l *Log) Commit(second int64, batch []Entry) {
	if len(batch) == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.bySecond[second] = append(l.bySecond[second], batch...)
}

// Entries returns a copy of the entries recorded for second, and whether
// any were recorded at all.
func (l *Log) Entries(second int64) ([]Entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	entries, ok := l.bySecond[second]
	if !ok {
		return nil, false
	}
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out, true
}

// Count returns the number of entries recorded for second.
func (l *Log) Count(second int64) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.bySecond[second])
}

// Prune discards every second strictly older than cutoff, bounding the
// log's memory footprint across a long-running watchdog loop — without it
// bySecond grows without bound since nothing else ever removes a key.
func (l *Log) Prune(cutoff int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for second := range l.bySecond {
		if second < cutoff {
			delete(l.bySecond, second)
		}
	}
}

// Stats summarizes one second's worth of entries.
type Stats struct {
	Count      int
	MeanMS     float64
	P50MS      float64
	P95MS      float64
	P99MS      float64
}

// Percentiles computes Stats for second. ok is false if the second has no
// recorded entries — the Watchdog's "no data this second" case.
func (l *Log) Percentiles(second int64) (Stats, bool) {
	entries, ok := l.Entries(second)
	if !ok || len(entries) == 0 {
		return Stats{}, false
	}

	ms := make([]float64, len(entries))
	var sum float64
	for i, e := range entries {
		v := float64(e.Duration) / float64(time.Millisecond)
		ms[i] = v
		sum += v
	}
	sort.Float64s(ms)

	return Stats{
		Count:  len(ms),
		MeanMS: sum / float64(len(ms)),
		P50MS:  percentile(ms, 0.50),
		P95MS:  percentile(ms, 0.95),
		P99MS:  percentile(ms, 0.99),
	}, true
}

// percentile returns the element of a pre-sorted slice at index
// floor(p*(n-1)), without interpolation.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(p * float64(len(sorted)-1))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
