package selector

import (
	"testing"

	"github.com/elchinoo/colt/internal/logging"
	"github.com/elchinoo/colt/internal/pipeline"
	"github.com/elchinoo/colt/internal/pipeline/queue"
	"github.com/elchinoo/colt/internal/tablekey"
	"github.com/elchinoo/colt/pkg/types"
)

func oneInsertConfig() *types.Config {
	q := &types.Query{
		CQL:        "insert into ks.users (id, name) values (?, ?)",
		Kind:       types.QueryInsert,
		Table:      "ks@users",
		Attributes: []types.Attribute{
			{Name: "id", Type: "uuid", Level: types.LevelPartition, Hash: 1},
			{Name: "name", Type: "ascii", Level: types.LevelAttribute, Hash: 2},
		},
	}
	return &types.Config{
		Workloads: map[string]types.Workload{
			"inserts": {Ratio: 1, Queries: []*types.Query{q}},
		},
	}
}

func newTestWorker(cfg *types.Config) (*Worker, *queue.Queue[pipeline.SelectedQuery]) {
	states := map[string]*tablekey.State{"ks@users": tablekey.New()}
	out := queue.New[pipeline.SelectedQuery](10)
	signals := pipeline.NewSignals()
	w := New(NewWorkloadTable(cfg), states, 42, out, signals, logging.NewDefault())
	return w, out
}

func TestProcessOneEmitsSelectedQueryPerQuery(t *testing.T) {
	w, out := newTestWorker(oneInsertConfig())
	if err := w.processOne(); err != nil {
		t.Fatalf("processOne() error = %v", err)
	}
	if out.Len() != 1 {
		t.Fatalf("out.Len() = %d, want 1", out.Len())
	}
	item, ok := out.Recv(nil)
	if !ok {
		t.Fatal("expected an item on the output queue")
	}
	if item.WorkloadName != "inserts" {
		t.Errorf("WorkloadName = %q, want inserts", item.WorkloadName)
	}
	if item.Table != "ks@users" {
		t.Errorf("Table = %q, want ks@users", item.Table)
	}
	if item.Kind != types.QueryInsert {
		t.Errorf("Kind = %v, want insert", item.Kind)
	}
	if len(item.Attributes) != 2 {
		t.Fatalf("len(Attributes) = %d, want 2", len(item.Attributes))
	}
	// First ordinal in a fresh table is always forced primary, so
	// partition_seed == cluster_seed == 0, and the partition-level
	// attribute's seed should be base(0) + hash(1) = 1.
	if item.Attributes[0].Seed != 1 {
		t.Errorf("partition attribute seed = %d, want 1", item.Attributes[0].Seed)
	}
	if item.Attributes[1].Seed != 2 {
		t.Errorf("update-level attribute seed = %d, want 2", item.Attributes[1].Seed)
	}
}

func TestProcessOneUnknownTableIsFatal(t *testing.T) {
	cfg := oneInsertConfig()
	w, _ := newTestWorker(cfg)
	w.tableStates = map[string]*tablekey.State{} // remove the registered table
	if err := w.processOne(); err == nil {
		t.Fatal("expected an error when no TableKeyState is registered for the query's table")
	}
}

func TestProcessOneZeroRatioSumIsFatal(t *testing.T) {
	cfg := &types.Config{Workloads: map[string]types.Workload{}}
	w, _ := newTestWorker(cfg)
	if err := w.processOne(); err == nil {
		t.Fatal("expected an error for a zero ratio sum")
	}
}
