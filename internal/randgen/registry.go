package randgen

import (
	"fmt"

	"github.com/elchinoo/colt/internal/pipeline/errs"
)

// GeneratorFunc produces one concrete value for a column, given the RNG
// (already reseeded by the caller with the attribute's seed) and the
// column's generator_args. Composite generators (list, set, map) call back
// into the Registry to materialize their elements.
type GeneratorFunc func(g *RNG, reg *Registry, args map[string]any) (any, error)

// Registry maps a configured type tag to its GeneratorFunc, populated once
// at startup. An attribute naming an unregistered tag is a startup-time
// configuration error if caught during schema preparation, or an
// UnknownGeneratorType fatal error if only discovered at fabrication time.
type Registry struct {
	generators map[string]GeneratorFunc
}

// NewRegistry builds a Registry pre-populated with colt's full generator
// catalogue (internal/randgen/generators.go).
func NewRegistry() *Registry {
	r := &Registry{generators: make(map[string]GeneratorFunc, 32)}
	registerBuiltins(r)
	return r
}

// Register adds or replaces the generator for a type tag.
func (r *Registry) Register(typeTag string, fn GeneratorFunc) {
	r.generators[typeTag] = fn
}

// Lookup returns the generator for a type tag, or ok=false if unregistered.
func (r *Registry) Lookup(typeTag string) (GeneratorFunc, bool) {
	fn, ok := r.generators[typeTag]
	return fn, ok
}

// Generate reseeds g with seed and dispatches to the registered generator
// for typeTag. This is the single entry point the fabricator calls per
// attribute.
func (r *Registry) Generate(g *RNG, typeTag string, seed uint64, args map[string]any) (any, error) {
	fn, ok := r.Lookup(typeTag)
	if !ok {
		return nil, fmt.Errorf("randgen: %w: %q", errs.ErrUnknownGeneratorType, typeTag)
	}
	g.Seed(seed)
	return fn(g, r, args)
}
