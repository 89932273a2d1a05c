package fabricator

import (
	"testing"

	"github.com/elchinoo/colt/internal/logging"
	"github.com/elchinoo/colt/internal/pipeline"
	"github.com/elchinoo/colt/internal/pipeline/queue"
	"github.com/elchinoo/colt/internal/randgen"
	"github.com/elchinoo/colt/pkg/types"
	"github.com/google/uuid"
)

func newTestWorker() (*Worker, *queue.Queue[pipeline.SelectedQuery], *queue.Queue[pipeline.BoundQuery]) {
	in := queue.New[pipeline.SelectedQuery](10)
	out := queue.New[pipeline.BoundQuery](10)
	signals := pipeline.NewSignals()
	w := New(randgen.NewRegistry(), in, out, signals, logging.NewDefault())
	return w, in, out
}

func TestBindMaterializesValuesInOrder(t *testing.T) {
	w, _, _ := newTestWorker()
	sel := pipeline.SelectedQuery{
		WorkloadName: "inserts",
		QueryIndex:   0,
		Kind:         types.QueryInsert,
		Table:        "ks@users",
		Stmt:         "insert into ks.users (id, name) values (?, ?)",
		Attributes: []pipeline.AttributeSeed{
			{Type: "uuid", Seed: 1},
			{Type: "ascii", Seed: 2, Args: map[string]any{"min_length": 5, "max_length": 5}},
		},
	}
	bound, err := w.bind(sel)
	if err != nil {
		t.Fatalf("bind() error = %v", err)
	}
	if len(bound.Values) != 2 {
		t.Fatalf("len(Values) = %d, want 2", len(bound.Values))
	}
	if _, ok := bound.Values[0].(uuid.UUID); !ok {
		t.Errorf("Values[0] type = %T, want uuid.UUID", bound.Values[0])
	}
	name, ok := bound.Values[1].(string)
	if !ok || len(name) != 5 {
		t.Errorf("Values[1] = %#v, want a 5-byte ascii string", bound.Values[1])
	}
	if bound.WorkloadName != sel.WorkloadName || bound.Table != sel.Table || bound.Kind != sel.Kind {
		t.Errorf("bound query metadata not preserved: %+v", bound)
	}
}

func TestBindSameSeedSameValue(t *testing.T) {
	w, _, _ := newTestWorker()
	sel := pipeline.SelectedQuery{
		Attributes: []pipeline.AttributeSeed{{Type: "bigint", Seed: 7}},
	}
	a, err := w.bind(sel)
	if err != nil {
		t.Fatalf("bind() error = %v", err)
	}
	b, err := w.bind(sel)
	if err != nil {
		t.Fatalf("bind() error = %v", err)
	}
	if a.Values[0] != b.Values[0] {
		t.Errorf("same seed produced different values: %v != %v", a.Values[0], b.Values[0])
	}
}

func TestBindUnknownGeneratorTypeIsFatal(t *testing.T) {
	w, _, _ := newTestWorker()
	sel := pipeline.SelectedQuery{
		Attributes: []pipeline.AttributeSeed{{Type: "nonexistent", Seed: 1}},
	}
	if _, err := w.bind(sel); err == nil {
		t.Fatal("expected an error for an unregistered generator type")
	}
}
