package domain

import (
	"sort"
	"time"
)

// InstrumentKind distinguishes option and futures legs
type InstrumentKind string

const (
	InstrumentCall   InstrumentKind = "CE"
	InstrumentPut    InstrumentKind = "PE"
	InstrumentFuture InstrumentKind = "FUT"
)

// OrderSide represents the direction of one leg
type OrderSide string

const (
	SideBuy  OrderSide = "BUY"
	SideSell OrderSide = "SELL"
)

// OrderLeg is an immutable description of one leg of a multi-leg structure.
// Priority is the execution rank: lower ranks must be routed first, and every
// hedge leg carries a strictly lower rank than every non-hedge leg.
type OrderLeg struct {
	Underlying string         `json:"underlying"`
	Expiry     time.Time      `json:"expiry"`
	Strike     float64        `json:"strike"`
	Instrument InstrumentKind `json:"instrument"`
	Side       OrderSide      `json:"side"`
	Quantity   int            `json:"quantity"`
	Hedge      bool           `json:"hedge"`
	Role       string         `json:"role"`
	Priority   int            `json:"priority"`
}

// OrderSet is the ordered sequence of legs produced by one generation call.
type OrderSet struct {
	Variant string     `json:"variant"`
	Legs    []OrderLeg `json:"legs"`
}

// SortedByPriority returns the legs in execution order.
func (s OrderSet) SortedByPriority() []OrderLeg {
	legs := make([]OrderLeg, len(s.Legs))
	copy(legs, s.Legs)
	sort.SliceStable(legs, func(i, j int) bool {
		return legs[i].Priority < legs[j].Priority
	})
	return legs
}

// HedgeLegs returns only the protective legs of the set.
func (s OrderSet) HedgeLegs() []OrderLeg {
	var out []OrderLeg
	for _, leg := range s.Legs {
		if leg.Hedge {
			out = append(out, leg)
		}
	}
	return out
}

// OrderConstraints declares the structural bounds a variant's generated sets
// must satisfy. The variant identity owns these; validation reads them.
type OrderConstraints struct {
	MinLegs       int
	MaxLegs       int
	HedgeRequired bool
	Whitelist     []string
}

// ValidateOrderSet checks the structural invariants of a generated order set:
// leg count within bounds, every underlying whitelisted, and - when hedging is
// required - at least one hedge leg whose priority rank is strictly lower than
// every non-hedge leg's rank (hedge-first execution). Violations are
// programmer/input errors and return a *ValidationError that must propagate.
func ValidateOrderSet(set OrderSet, constraints OrderConstraints) error {
	n := len(set.Legs)
	if n < constraints.MinLegs || n > constraints.MaxLegs {
		return NewValidationError("legs", "leg count %d outside declared bounds [%d,%d]",
			n, constraints.MinLegs, constraints.MaxLegs)
	}

	whitelisted := make(map[string]bool, len(constraints.Whitelist))
	for _, u := range constraints.Whitelist {
		whitelisted[u] = true
	}
	for _, leg := range set.Legs {
		if !whitelisted[leg.Underlying] {
			return NewValidationError("underlying", "underlying %q is not whitelisted", leg.Underlying)
		}
		if leg.Quantity <= 0 {
			return NewValidationError("quantity", "leg quantity must be positive, got %d", leg.Quantity)
		}
	}

	if constraints.HedgeRequired {
		maxHedge := -1
		minBody := -1
		hedges := 0
		for _, leg := range set.Legs {
			if leg.Hedge {
				hedges++
				if leg.Priority > maxHedge {
					maxHedge = leg.Priority
				}
			} else {
				if minBody == -1 || leg.Priority < minBody {
					minBody = leg.Priority
				}
			}
		}
		if hedges == 0 {
			return NewValidationError("hedge", "required hedge leg is absent")
		}
		if minBody != -1 && maxHedge >= minBody {
			return NewValidationError("hedge",
				"hedge-first violated: hedge priority %d not below body priority %d", maxHedge, minBody)
		}
	}

	return nil
}
