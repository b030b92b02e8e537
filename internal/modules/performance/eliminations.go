package performance

import (
	"sort"
	"sync"
	"time"
)

// Elimination records why a variant is currently suppressed.
type Elimination struct {
	Variant      string    `json:"variant"`
	Reason       string    `json:"reason"`
	EliminatedAt time.Time `json:"eliminated_at"`
}

// EliminationSet is the shared set of suppressed variants. Written only by
// weekly calibration or an operator override, read every cycle. Reads hand
// out copies taken under the lock, so a cycle always sees one consistent set.
type EliminationSet struct {
	mu      sync.RWMutex
	entries map[string]Elimination
}

// NewEliminationSet creates an empty set
func NewEliminationSet() *EliminationSet {
	return &EliminationSet{
		entries: make(map[string]Elimination),
	}
}

// Eliminate suppresses a variant. Idempotent; the first reason wins.
func (e *EliminationSet) Eliminate(variant, reason string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.entries[variant]; exists {
		return
	}
	e.entries[variant] = Elimination{
		Variant:      variant,
		Reason:       reason,
		EliminatedAt: time.Now().UTC(),
	}
}

// Override removes a variant from the set (operator action). Returns whether
// the variant was present.
func (e *EliminationSet) Override(variant string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, exists := e.entries[variant]
	delete(e.entries, variant)
	return exists
}

// Contains reports whether a variant is currently suppressed.
func (e *EliminationSet) Contains(variant string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.entries[variant]
	return ok
}

// List returns the current eliminations, sorted by variant.
func (e *EliminationSet) List() []Elimination {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]Elimination, 0, len(e.entries))
	for _, entry := range e.entries {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Variant < out[j].Variant
	})
	return out
}

// restore loads a persisted elimination without resetting its timestamp.
func (e *EliminationSet) restore(entry Elimination) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.entries[entry.Variant] = entry
}
