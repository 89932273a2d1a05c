package selector

import (
	"sort"

	"github.com/elchinoo/colt/pkg/types"
)

// WorkloadTable is the precomputed, deterministically ordered cumulative
// ratio table workload selection draws against. Workload names are sorted
// once at construction so every selector worker walks the same fixed order
// regardless of Go's randomized map iteration.
type WorkloadTable struct {
	names      []string
	workloads  []*types.Workload
	boundaries []int // cumulative, boundaries[i] is the upper bound for names[i]
	ratioSum   int
}

// NewWorkloadTable builds the cumulative table from cfg.Workloads.
func NewWorkloadTable(cfg *types.Config) *WorkloadTable {
	names := make([]string, 0, len(cfg.Workloads))
	for name := range cfg.Workloads {
		names = append(names, name)
	}
	sort.Strings(names)

	t := &WorkloadTable{
		names:      names,
		workloads:  make([]*types.Workload, len(names)),
		boundaries: make([]int, len(names)),
	}
	sum := 0
	for i, name := range names {
		wl := cfg.Workloads[name]
		t.workloads[i] = &wl
		sum += wl.Ratio
		t.boundaries[i] = sum
	}
	t.ratioSum = sum
	return t
}

// RatioSum returns the sum of every workload's ratio.
func (t *WorkloadTable) RatioSum() int {
	return t.ratioSum
}

// Pick returns the workload owning r, where r is drawn uniformly from
// [0, RatioSum()): workload i owns the half-open range
// [boundaries[i-1], boundaries[i]), so observed selection frequency
// converges to ratio/ratio_sum.
func (t *WorkloadTable) Pick(r int) (name string, wl *types.Workload) {
	idx := sort.SearchInts(t.boundaries, r+1)
	if idx >= len(t.boundaries) {
		idx = len(t.boundaries) - 1
	}
	return t.names[idx], t.workloads[idx]
}
