// Package randgen implements colt's deterministic, seekable random-value
// engine: a seed-per-call PRNG (RNG) plus the type-generator registry that
// turns a (type, args, seed) triple into a concrete column value.
//
// Every call site reseeds the RNG explicitly before drawing — RNG state is
// never carried across attributes or queries, so any worker in the pool can
// service any item and still reproduce byte-identical output given the same
// seed.
package randgen

import "math/rand/v2"

// lcgA and lcgC are the fixed 64-bit LCG constants used to derive a fresh
// update seed from an existing one: LCG(x) = (a*x + c) mod 2^64.
const (
	lcgA uint64 = 6364136223846793005
	lcgC uint64 = 1442695040888963407
)

// LCG advances x by one step of the fixed linear congruential generator
// used for update-seed chaining. It is a pure function, independent of any
// RNG instance.
func LCG(x uint64) uint64 {
	return lcgA*x + lcgC
}

// RNG is a deterministic, seekable pseudo-random engine backed by
// math/rand/v2's PCG bit source. The same seed produces bit-identical
// output across platforms and Go versions, per PCG's documented guarantee —
// the property this whole system's reproducibility rests on.
type RNG struct {
	src *rand.PCG
	r   *rand.Rand
}

// New constructs an RNG seeded with the given value. Equivalent to calling
// Seed on a zero RNG.
func New(seed uint64) *RNG {
	rng := &RNG{}
	rng.Seed(seed)
	return rng
}

// Seed reseeds the RNG from a single 64-bit value. splitmix64 expands the
// one seed into the two 64-bit words PCG's constructor requires, so every
// distinct seed value maps to a distinct, reproducible stream.
func (g *RNG) Seed(seed uint64) {
	s1 := splitmix64(&seed)
	s2 := splitmix64(&seed)
	g.src = rand.NewPCG(s1, s2)
	g.r = rand.New(g.src)
}

// Uniform draws a float64 uniformly in [0, 1).
func (g *RNG) Uniform() float64 {
	return g.r.Float64()
}

// UniformInt draws an int64 uniformly in the half-open interval [lo, hi).
// hi <= lo is a programming error in the caller (every spec-defined call
// site guarantees hi > lo) and returns lo unchanged rather than panicking,
// since this is hot-path code shared by every pipeline worker.
func (g *RNG) UniformInt(lo, hi int64) int64 {
	if hi <= lo {
		return lo
	}
	return lo + g.r.Int64N(hi-lo)
}

// Randrange is an alias for UniformInt, kept alongside it as the RNG's full
// named contract: seed/uniform/uniform_int/choice/randrange.
func (g *RNG) Randrange(lo, hi int64) int64 {
	return g.UniformInt(lo, hi)
}

// Choice draws an index uniformly in [0, n). Used by generators that pick
// among a fixed alphabet or option set.
func (g *RNG) Choice(n int) int {
	if n <= 0 {
		return 0
	}
	return g.r.IntN(n)
}

// Bytes fills buf with pseudo-random bytes drawn from the current stream,
// for generators (blob, uuid) that need raw entropy rather than a single
// numeric draw.
func (g *RNG) Bytes(buf []byte) {
	for i := range buf {
		buf[i] = byte(g.r.IntN(256))
	}
}

// splitmix64 advances *state and returns one 64-bit output word, per the
// standard splitmix64 construction. Used only to expand a single seed value
// into the two words rand.NewPCG requires.
func splitmix64(state *uint64) uint64 {
	*state += 0x9E3779B97F4A7C15
	z := *state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	z = z ^ (z >> 31)
	return z
}
