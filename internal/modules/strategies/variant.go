// Package strategies defines the capability contract every hedged structure
// implements, plus the concrete variants and their registry.
package strategies

import (
	"time"

	"github.com/quantroll/stratagem/internal/domain"
)

// VolatilityBand is the volatility-index range a variant is built for.
type VolatilityBand struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Center returns the midpoint of the band.
func (b VolatilityBand) Center() float64 {
	return (b.Min + b.Max) / 2
}

// Contains reports whether the reading falls inside the band (inclusive).
func (b VolatilityBand) Contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

// Profile is a variant's immutable declared identity. Registered once at
// startup; performance is owned by the performance store, not here.
type Profile struct {
	Name          string                 `json:"name"`
	MinLegs       int                    `json:"min_legs"`
	MaxLegs       int                    `json:"max_legs"`
	Band          VolatilityBand         `json:"volatility_band"`
	Whitelist     []string               `json:"whitelist"`
	HedgeRequired bool                   `json:"hedge_required"`
	VolClass      domain.VolatilityClass `json:"vol_class"`
	Directional   bool                   `json:"directional"`

	// Declared risk/return constants. RiskFactor is in [0,1]; higher means
	// the structure carries more open risk per unit of margin.
	RiskFactor   float64 `json:"risk_factor"`
	RewardFactor float64 `json:"reward_factor"`

	// Preferred days-to-expiry entry window (center +/- tolerance)
	PreferredDTE int `json:"preferred_dte"`
	DTETolerance int `json:"dte_tolerance"`

	// Per-lot rupee thresholds for the risk ladder
	StopPerLot   float64 `json:"stop_per_lot"`
	TargetPerLot float64 `json:"target_per_lot"`

	// Fraction of the theoretical maximum credit assumed received; used by
	// the approximate risk metrics only, never for pricing.
	CreditFraction float64 `json:"credit_fraction"`
}

// Constraints derives the structural-validation constraints from the profile.
func (p Profile) Constraints() domain.OrderConstraints {
	return domain.OrderConstraints{
		MinLegs:       p.MinLegs,
		MaxLegs:       p.MaxLegs,
		HedgeRequired: p.HedgeRequired,
		Whitelist:     p.Whitelist,
	}
}

// Limits carries operator-imposed entry limits applied on top of a variant's
// own declared bounds. The zero value imposes nothing extra.
type Limits struct {
	MaxVolatilityIndex float64
	MinDaysToExpiry    int
}

// Sizing carries everything order generation needs beyond the signal itself.
type Sizing struct {
	Spot    float64
	Expiry  time.Time
	Lots    int
	LotSize int
}

// RiskContext is the non-mtm state a risk tick is evaluated against.
type RiskContext struct {
	Lots         int
	DaysHeld     int
	DaysToExpiry int
	SpotMovePct  float64 // signed move since entry, e.g. -1.2 for a 1.2% drop
}

// RiskMetrics is the approximate risk surface of a generated order set.
// Estimates only - premiums are externally supplied, never priced here.
type RiskMetrics struct {
	MaxLoss        float64 `json:"max_loss"`
	MaxProfit      float64 `json:"max_profit"`
	MarginEstimate float64 `json:"margin_estimate"`
}

// Variant is the capability set every hedged structure implements.
// Implementations must be stateless: Evaluate and OnRiskTick are pure
// functions of their inputs so that repeated calls with identical inputs
// yield identical results.
type Variant interface {
	// Name returns the registry identifier.
	Name() string

	// Profile returns the immutable declared identity.
	Profile() Profile

	// Evaluate reports whether current conditions admit this variant.
	Evaluate(cond domain.MarketConditions, limits Limits) bool

	// GenerateOrders builds the multi-leg order set for an emitted signal.
	// Structural failures (non-monotonic strikes, out-of-bounds wing or
	// ratio parameters, missing hedge) return a *domain.ValidationError.
	GenerateOrders(signal domain.StrategySignal, sizing Sizing) (domain.OrderSet, error)

	// OnRiskTick maps current mark-to-market and context to exactly one
	// RiskAction, honoring the ladder precedence.
	OnRiskTick(mtm float64, ctx RiskContext) RiskAction

	// RiskMetrics estimates the loss/profit/margin surface of an order set.
	RiskMetrics(set domain.OrderSet, spot float64) RiskMetrics
}

// baseEvaluate applies the checks shared by every variant: whitelist
// membership, the declared volatility band (hard - outside the band the
// variant never qualifies), a minimum runway to expiry, and operator limits.
func baseEvaluate(p Profile, cond domain.MarketConditions, limits Limits) bool {
	if !p.Band.Contains(cond.VolatilityIndex) {
		return false
	}

	whitelisted := false
	for _, u := range p.Whitelist {
		if u == cond.Symbol {
			whitelisted = true
			break
		}
	}
	if !whitelisted {
		return false
	}

	minDTE := 1
	if limits.MinDaysToExpiry > minDTE {
		minDTE = limits.MinDaysToExpiry
	}
	if cond.DaysToExpiry < minDTE {
		return false
	}

	if limits.MaxVolatilityIndex > 0 && cond.VolatilityIndex > limits.MaxVolatilityIndex {
		return false
	}

	return true
}
