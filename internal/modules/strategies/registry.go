package strategies

import (
	"fmt"
	"sort"
	"sync"
)

// Registry is the lookup table of registered variants. Identities are
// registered once at startup and never mutated afterwards; dispatch goes
// through the table, not a type hierarchy.
type Registry struct {
	mu       sync.RWMutex
	variants map[string]Variant
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		variants: make(map[string]Variant),
	}
}

// NewDefaultRegistry registers the five built-in hedged structures against
// the given instrument whitelist.
func NewDefaultRegistry(whitelist []string) *Registry {
	r := NewRegistry()
	// Registration of built-ins cannot collide; ignore the error path.
	_ = r.Register(NewIronCondor(whitelist))
	_ = r.Register(NewIronFly(whitelist))
	_ = r.Register(NewHedgedStrangle(whitelist))
	_ = r.Register(NewDirectionalSpread(whitelist))
	_ = r.Register(NewRatioSpread(whitelist))
	return r
}

// Register adds a variant. Re-registering a name is a programming error.
func (r *Registry) Register(v Variant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := v.Name()
	if _, exists := r.variants[name]; exists {
		return fmt.Errorf("variant %q already registered", name)
	}
	r.variants[name] = v
	return nil
}

// Get returns a variant by name.
func (r *Registry) Get(name string) (Variant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.variants[name]
	return v, ok
}

// All returns every registered variant, sorted by name for determinism.
func (r *Registry) All() []Variant {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Variant, 0, len(r.variants))
	for _, v := range r.variants {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name() < out[j].Name()
	})
	return out
}

// Names returns the sorted registered names.
func (r *Registry) Names() []string {
	all := r.All()
	names := make([]string, len(all))
	for i, v := range all {
		names[i] = v.Name()
	}
	return names
}

// Len returns the number of registered variants.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.variants)
}
