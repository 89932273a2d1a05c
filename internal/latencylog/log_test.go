package latencylog

import (
	"testing"
	"time"
)

func TestCommitAndEntries(t *testing.T) {
	l := New()
	l.Commit(100, []Entry{
		{Duration: 5 * time.Millisecond, Workload: "ins", QueryIndex: 0},
		{Duration: 7 * time.Millisecond, Workload: "ins", QueryIndex: 0},
	})

	entries, ok := l.Entries(100)
	if !ok {
		t.Fatalf("expected entries for second 100")
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
}

func TestEntriesMissingSecond(t *testing.T) {
	l := New()
	if _, ok := l.Entries(1); ok {
		t.Fatalf("expected no entries for an uncommitted second")
	}
}

func TestPercentilesNoData(t *testing.T) {
	l := New()
	if _, ok := l.Percentiles(1); ok {
		t.Fatalf("expected ok=false for a second with no data")
	}
}

func TestPercentilesComputesMeanAndP50(t *testing.T) {
	l := New()
	batch := make([]Entry, 0, 100)
	for i := 1; i <= 100; i++ {
		batch = append(batch, Entry{Duration: time.Duration(i) * time.Millisecond})
	}
	l.Commit(5, batch)

	stats, ok := l.Percentiles(5)
	if !ok {
		t.Fatalf("expected ok=true")
	}
	if stats.Count != 100 {
		t.Fatalf("Count = %d, want 100", stats.Count)
	}
	if stats.MeanMS < 50 || stats.MeanMS > 51 {
		t.Fatalf("MeanMS = %v, want ~50.5", stats.MeanMS)
	}
	if stats.P50MS < 49 || stats.P50MS > 52 {
		t.Fatalf("P50MS = %v, want ~50", stats.P50MS)
	}
	if stats.P99MS < 97 {
		t.Fatalf("P99MS = %v, want close to max", stats.P99MS)
	}
}

func TestPrune(t *testing.T) {
	l := New()
	l.Commit(1, []Entry{{Duration: time.Millisecond}})
	l.Commit(10, []Entry{{Duration: time.Millisecond}})

	l.Prune(5)

	if _, ok := l.Entries(1); ok {
		t.Fatalf("expected second 1 to be pruned")
	}
	if _, ok := l.Entries(10); !ok {
		t.Fatalf("expected second 10 to survive prune")
	}
}
