package tablekey

import (
	"fmt"
	"sync"

	"github.com/elchinoo/colt/internal/pipeline/errs"
	"github.com/elchinoo/colt/internal/randgen"
	"github.com/elchinoo/colt/pkg/types"
	"go.uber.org/atomic"
)

// Seeds is the per-query output of Resolve: the three seed components
// attributes are derived from (selected by level — partition, cluster,
// attribute/update), plus the ordinal involved, useful for logging.
type Seeds struct {
	PartitionSeed uint64
	ClusterSeed   uint64
	UpdateSeed    uint64
	Ordinal       uint64
}

// State is one table's reproducible keyspace-state: the bit-vector of
// insertion ordinals and the update_dict map, both guarded by mu. mu is
// the serialization point for the whole read-decide-append transaction —
// every Resolve call holds it for its entire duration, because the
// ordinal a caller observes must equal the one it appends.
type State struct {
	mu         sync.Mutex
	bitmap     *BitVector
	updateDict map[uint64]uint64

	// ordinalGauge mirrors bitmap.Len() for lock-free observation by
	// logging/metrics call sites that don't want to contend with the
	// hot-path mutex; it is only ever written while mu is held.
	ordinalGauge atomic.Uint64
}

// New returns an empty per-table State.
func New() *State {
	return &State{
		bitmap:     NewBitVector(),
		updateDict: make(map[uint64]uint64),
	}
}

// Ordinals returns the number of insert attempts ever scheduled for this
// table, safe to call without holding any lock.
func (s *State) Ordinals() uint64 {
	return s.ordinalGauge.Load()
}

// Resolve runs the read-decide-append transaction for one query of the
// given kind, using rng (already owned exclusively by the calling worker)
// to make every random decision. It is the single entry point
// WorkloadSelector uses per query.
func (s *State) Resolve(kind types.QueryKind, rng *randgen.RNG, chance float64) (Seeds, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch kind {
	case types.QueryInsert:
		return s.insertLocked(rng, chance), nil
	case types.QuerySelect, types.QueryUpdate, types.QueryDelete:
		return s.mutateLocked(kind, rng), nil
	default:
		return Seeds{}, fmt.Errorf("tablekey: %w: %v", errs.ErrUnknownQueryKind, kind)
	}
}

// insertLocked resolves seeds for a new insert. Callers must hold s.mu.
func (s *State) insertLocked(rng *randgen.RNG, chance float64) Seeds {
	n := s.bitmap.Len()
	clusterSeed := n
	partitionSeed := n

	rng.Seed(n)
	x := rng.Uniform()
	newPartition := x >= chance

	if newPartition && n > 0 {
		partitionSeed = s.findOlderPrimary(rng, n)
	}

	isPrimary := !newPartition || clusterSeed == partitionSeed
	ordinal := s.bitmap.Append(isPrimary, false, false)
	s.ordinalGauge.Store(s.bitmap.Len())

	return Seeds{
		PartitionSeed: partitionSeed,
		ClusterSeed:   clusterSeed,
		UpdateSeed:    clusterSeed,
		Ordinal:       ordinal,
	}
}

// mutateLocked resolves seeds for select/update/delete against an
// existing ordinal. Callers must hold s.mu.
func (s *State) mutateLocked(kind types.QueryKind, rng *randgen.RNG) Seeds {
	n := s.bitmap.Len()

	var c uint64
	if n <= 1 {
		c = 0
	} else {
		for {
			c = uint64(rng.UniformInt(0, int64(n)))
			if _, _, wasDeleted := s.bitmap.Get(c); !wasDeleted {
				break
			}
		}
	}

	isPrimary, _, _ := s.bitmap.Get(c)
	var partitionSeed uint64
	if isPrimary {
		partitionSeed = c
	} else {
		rng.Seed(c)
		_ = rng.Uniform() // burn the chance roll that created ordinal c
		partitionSeed = s.findOlderPrimary(rng, c)
	}

	updateSeed, wasUpdatedBefore := s.updateDict[c]
	if !wasUpdatedBefore {
		updateSeed = c
	}

	switch kind {
	case types.QueryUpdate:
		updateSeed = randgen.LCG(updateSeed)
		s.updateDict[c] = updateSeed
		s.bitmap.SetWasUpdated(c, true)
	case types.QueryDelete:
		s.bitmap.SetWasDeleted(c, true)
		delete(s.updateDict, c)
	case types.QuerySelect:
		// no mutation; seeds are derived read-only
	}

	return Seeds{
		PartitionSeed: partitionSeed,
		ClusterSeed:   c,
		UpdateSeed:    updateSeed,
		Ordinal:       c,
	}
}

// findOlderPrimary repeatedly draws p = RNG.uniform_int(0, bound) until
// p == 0 or bitmap[p].is_primary. It is used both by a
// fresh insert's partition search and by mutateLocked's recovery of an
// older cluster's partition_seed (re-run against the same seed that
// produced it, so it deterministically reproduces the same p).
func (s *State) findOlderPrimary(rng *randgen.RNG, bound uint64) uint64 {
	for {
		p := uint64(rng.UniformInt(0, int64(bound)))
		if p == 0 {
			return p
		}
		if isPrimary, _, _ := s.bitmap.Get(p); isPrimary {
			return p
		}
	}
}
