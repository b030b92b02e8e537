package strategies

import (
	"github.com/quantroll/stratagem/internal/domain"
)

// RatioSpread buys one near-the-money call and sells ratioLegs further-out
// calls, with a far-OTM long call capping the upside exposure. The cap leg
// is the hedge and routes first.
type RatioSpread struct {
	profile Profile
}

const (
	ratioLegs          = 2 // declared ratio; anything else is a structural error
	ratioLongOffsetPct = 0.005
	ratioShortSpanPct  = 0.015
	ratioCapSpanPct    = 0.015
	ratioRebalancePct  = 1.2
)

// NewRatioSpread creates the call ratio spread variant.
func NewRatioSpread(whitelist []string) *RatioSpread {
	return &RatioSpread{
		profile: Profile{
			Name:           "RATIO_SPREAD",
			MinLegs:        3,
			MaxLegs:        3,
			Band:           VolatilityBand{Min: 14, Max: 26},
			Whitelist:      whitelist,
			HedgeRequired:  true,
			VolClass:       domain.VolClassModerate,
			Directional:    true,
			RiskFactor:     0.60,
			RewardFactor:   0.07,
			PreferredDTE:   20,
			DTETolerance:   12,
			StopPerLot:     3000,
			TargetPerLot:   1800,
			CreditFraction: 0.20,
		},
	}
}

func (v *RatioSpread) Name() string     { return v.profile.Name }
func (v *RatioSpread) Profile() Profile { return v.profile }

// Evaluate wants a mild upward drift: bullish bias, but not a runaway tape
// where the short ratio legs get overrun.
func (v *RatioSpread) Evaluate(cond domain.MarketConditions, limits Limits) bool {
	if !baseEvaluate(v.profile, cond, limits) {
		return false
	}
	if cond.Bias != domain.BiasBullish {
		return false
	}
	return cond.TrendStrength <= 0.85
}

func (v *RatioSpread) GenerateOrders(signal domain.StrategySignal, sizing Sizing) (domain.OrderSet, error) {
	if sizing.Spot <= 0 {
		return domain.OrderSet{}, domain.NewValidationError("spot", "spot must be positive, got %.2f", sizing.Spot)
	}

	step := strikeStep(signal.Symbol)
	long := roundToStrike(sizing.Spot*(1+ratioLongOffsetPct), step)
	short := roundToStrike(sizing.Spot*(1+ratioLongOffsetPct+ratioShortSpanPct), step)
	capStrike := roundToStrike(sizing.Spot*(1+ratioLongOffsetPct+ratioShortSpanPct+ratioCapSpanPct), step)

	if !strikesAscending(long, short, capStrike) {
		return domain.OrderSet{}, domain.NewValidationError("strikes",
			"ratio strikes not strictly monotonic: %.0f %.0f %.0f", long, short, capStrike)
	}

	qty := sizing.Lots * sizing.LotSize
	shortQty := qty * ratioLegs
	if shortQty/qty != ratioLegs {
		return domain.OrderSet{}, domain.NewValidationError("ratio",
			"ratio quantity overflow for %d lots", sizing.Lots)
	}

	set := domain.OrderSet{
		Variant: v.profile.Name,
		Legs: []domain.OrderLeg{
			{Underlying: signal.Symbol, Expiry: sizing.Expiry, Strike: capStrike, Instrument: domain.InstrumentCall, Side: domain.SideBuy, Quantity: shortQty - qty, Hedge: true, Role: "cap", Priority: 0},
			{Underlying: signal.Symbol, Expiry: sizing.Expiry, Strike: long, Instrument: domain.InstrumentCall, Side: domain.SideBuy, Quantity: qty, Hedge: false, Role: "long", Priority: 1},
			{Underlying: signal.Symbol, Expiry: sizing.Expiry, Strike: short, Instrument: domain.InstrumentCall, Side: domain.SideSell, Quantity: shortQty, Hedge: false, Role: "ratio_short", Priority: 2},
		},
	}

	if err := domain.ValidateOrderSet(set, v.profile.Constraints()); err != nil {
		return domain.OrderSet{}, err
	}
	return set, nil
}

// OnRiskTick advises a delta rebalance once spot runs past the short strike
// zone in either direction.
func (v *RatioSpread) OnRiskTick(mtm float64, ctx RiskContext) RiskAction {
	return evalRiskLadder(mtm, v.profile, ctx, func(_ float64, ctx RiskContext) RiskAction {
		if ctx.SpotMovePct >= ratioRebalancePct || ctx.SpotMovePct <= -ratioRebalancePct {
			return RiskDeltaRebalance
		}
		return RiskNone
	})
}

// RiskMetrics: the uncovered middle of a ratio spread makes the defined-risk
// estimate an understatement, so pad the loss side.
func (v *RatioSpread) RiskMetrics(set domain.OrderSet, spot float64) RiskMetrics {
	m := definedRiskMetrics(set, v.profile.CreditFraction)
	m.MaxLoss *= 1.5
	m.MarginEstimate = m.MaxLoss * 1.15
	return m
}
