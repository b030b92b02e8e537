package selection

import (
	"github.com/rs/zerolog"

	"github.com/quantroll/stratagem/internal/domain"
	"github.com/quantroll/stratagem/internal/modules/performance"
	"github.com/quantroll/stratagem/internal/modules/strategies"
)

// Filter reduces the registry to the variants viable right now. Each
// variant's Evaluate runs in isolation: a panic in one is logged and treated
// as "not viable" without touching the others.
type Filter struct {
	registry *strategies.Registry
	elims    *performance.EliminationSet
	log      zerolog.Logger
}

// NewFilter builds the candidate filter.
func NewFilter(registry *strategies.Registry, elims *performance.EliminationSet, log zerolog.Logger) *Filter {
	return &Filter{
		registry: registry,
		elims:    elims,
		log:      log.With().Str("component", "candidate-filter").Logger(),
	}
}

// Candidates returns the viable variants for the conditions, in registry
// (name) order. conservativeOnly additionally restricts to low-risk hedged
// structures.
func (f *Filter) Candidates(cond domain.MarketConditions, limits strategies.Limits, conservativeOnly bool) []strategies.Variant {
	var out []strategies.Variant
	for _, v := range f.registry.All() {
		if f.elims != nil && f.elims.Contains(v.Name()) {
			continue
		}
		if conservativeOnly && !isConservative(v.Profile()) {
			continue
		}
		if f.evaluate(v, cond, limits) {
			out = append(out, v)
		}
	}
	return out
}

// evaluate isolates one variant's Evaluate call.
func (f *Filter) evaluate(v strategies.Variant, cond domain.MarketConditions, limits strategies.Limits) (ok bool) {
	defer func() {
		if p := recover(); p != nil {
			f.log.Error().
				Interface("panic", p).
				Str("variant", v.Name()).
				Msg("Variant evaluation panicked, excluding from cycle")
			ok = false
		}
	}()
	return v.Evaluate(cond, limits)
}

// isConservative marks the structures allowed through an elevated
// danger-zone reading: fully hedged and low declared risk.
func isConservative(p strategies.Profile) bool {
	return p.HedgeRequired && p.RiskFactor <= 0.5
}
