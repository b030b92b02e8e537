package strategies

import (
	"github.com/quantroll/stratagem/internal/domain"
)

// IronCondor is the four-leg neutral structure: short OTM put and call,
// long further-OTM wings as hedges. Profits from the underlying staying
// inside the short strikes.
type IronCondor struct {
	profile Profile
}

// Condor geometry, relative to spot.
const (
	condorShortOffsetPct = 0.02  // short strikes 2% away from spot
	condorWingPct        = 0.015 // wings 1.5% beyond the shorts
	condorMinWingSteps   = 1
	condorMaxWingSteps   = 12
)

// NewIronCondor creates the iron condor variant.
func NewIronCondor(whitelist []string) *IronCondor {
	return &IronCondor{
		profile: Profile{
			Name:           "IRON_CONDOR",
			MinLegs:        4,
			MaxLegs:        4,
			Band:           VolatilityBand{Min: 12, Max: 24},
			Whitelist:      whitelist,
			HedgeRequired:  true,
			VolClass:       domain.VolClassModerate,
			Directional:    false,
			RiskFactor:     0.35,
			RewardFactor:   0.04,
			PreferredDTE:   25,
			DTETolerance:   15,
			StopPerLot:     2500,
			TargetPerLot:   1500,
			CreditFraction: 0.30,
		},
	}
}

// Name returns the registry identifier
func (v *IronCondor) Name() string { return v.profile.Name }

// Profile returns the declared identity
func (v *IronCondor) Profile() Profile { return v.profile }

// Evaluate reports whether conditions admit an iron condor entry.
func (v *IronCondor) Evaluate(cond domain.MarketConditions, limits Limits) bool {
	return baseEvaluate(v.profile, cond, limits)
}

// GenerateOrders builds the four-leg set with wings first (hedge-first ranks).
func (v *IronCondor) GenerateOrders(signal domain.StrategySignal, sizing Sizing) (domain.OrderSet, error) {
	if sizing.Spot <= 0 {
		return domain.OrderSet{}, domain.NewValidationError("spot", "spot must be positive, got %.2f", sizing.Spot)
	}

	step := strikeStep(signal.Symbol)
	shortPut := roundToStrike(sizing.Spot*(1-condorShortOffsetPct), step)
	shortCall := roundToStrike(sizing.Spot*(1+condorShortOffsetPct), step)
	wing := roundToStrike(sizing.Spot*condorWingPct, step)

	wingSteps := int(wing / step)
	if wingSteps < condorMinWingSteps || wingSteps > condorMaxWingSteps {
		return domain.OrderSet{}, domain.NewValidationError("wing",
			"wing width %.0f (%d steps) outside declared bounds [%d,%d]",
			wing, wingSteps, condorMinWingSteps, condorMaxWingSteps)
	}

	longPut := shortPut - wing
	longCall := shortCall + wing
	if !strikesAscending(longPut, shortPut, shortCall, longCall) {
		return domain.OrderSet{}, domain.NewValidationError("strikes",
			"condor strikes not strictly monotonic: %.0f %.0f %.0f %.0f",
			longPut, shortPut, shortCall, longCall)
	}

	qty := sizing.Lots * sizing.LotSize
	set := domain.OrderSet{
		Variant: v.profile.Name,
		Legs: []domain.OrderLeg{
			{Underlying: signal.Symbol, Expiry: sizing.Expiry, Strike: longPut, Instrument: domain.InstrumentPut, Side: domain.SideBuy, Quantity: qty, Hedge: true, Role: "wing_put", Priority: 0},
			{Underlying: signal.Symbol, Expiry: sizing.Expiry, Strike: longCall, Instrument: domain.InstrumentCall, Side: domain.SideBuy, Quantity: qty, Hedge: true, Role: "wing_call", Priority: 1},
			{Underlying: signal.Symbol, Expiry: sizing.Expiry, Strike: shortPut, Instrument: domain.InstrumentPut, Side: domain.SideSell, Quantity: qty, Hedge: false, Role: "short_put", Priority: 2},
			{Underlying: signal.Symbol, Expiry: sizing.Expiry, Strike: shortCall, Instrument: domain.InstrumentCall, Side: domain.SideSell, Quantity: qty, Hedge: false, Role: "short_call", Priority: 3},
		},
	}

	if err := domain.ValidateOrderSet(set, v.profile.Constraints()); err != nil {
		return domain.OrderSet{}, err
	}
	return set, nil
}

// OnRiskTick resolves a tick against the shared ladder; the condor's own
// advisory fires when one short strike is being tested.
func (v *IronCondor) OnRiskTick(mtm float64, ctx RiskContext) RiskAction {
	return evalRiskLadder(mtm, v.profile, ctx, func(_ float64, ctx RiskContext) RiskAction {
		if ctx.SpotMovePct >= condorShortOffsetPct*100*0.8 || ctx.SpotMovePct <= -condorShortOffsetPct*100*0.8 {
			return RiskExitTestedSide
		}
		return RiskNone
	})
}

// RiskMetrics estimates the defined-risk surface from the wing width.
func (v *IronCondor) RiskMetrics(set domain.OrderSet, spot float64) RiskMetrics {
	return definedRiskMetrics(set, v.profile.CreditFraction)
}
