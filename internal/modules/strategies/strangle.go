package strategies

import (
	"github.com/quantroll/stratagem/internal/domain"
)

// HedgedStrangle sells a wide OTM strangle with far-OTM protective wings.
// A premium harvester for elevated-volatility regimes; entry additionally
// requires a rich IV rank so there is premium worth selling.
type HedgedStrangle struct {
	profile Profile
}

const (
	strangleShortOffsetPct = 0.035
	strangleWingPct        = 0.02
	strangleMinIVRank      = 40.0
	strangleMinWingSteps   = 1
	strangleMaxWingSteps   = 16
)

// NewHedgedStrangle creates the hedged short strangle variant.
func NewHedgedStrangle(whitelist []string) *HedgedStrangle {
	return &HedgedStrangle{
		profile: Profile{
			Name:           "HEDGED_STRANGLE",
			MinLegs:        4,
			MaxLegs:        4,
			Band:           VolatilityBand{Min: 16, Max: 32},
			Whitelist:      whitelist,
			HedgeRequired:  true,
			VolClass:       domain.VolClassHigh,
			Directional:    false,
			RiskFactor:     0.55,
			RewardFactor:   0.06,
			PreferredDTE:   30,
			DTETolerance:   15,
			StopPerLot:     3500,
			TargetPerLot:   2000,
			CreditFraction: 0.25,
		},
	}
}

func (v *HedgedStrangle) Name() string     { return v.profile.Name }
func (v *HedgedStrangle) Profile() Profile { return v.profile }

// Evaluate adds an IV-rank floor on top of the shared checks.
func (v *HedgedStrangle) Evaluate(cond domain.MarketConditions, limits Limits) bool {
	if !baseEvaluate(v.profile, cond, limits) {
		return false
	}
	return cond.IVRank >= strangleMinIVRank
}

func (v *HedgedStrangle) GenerateOrders(signal domain.StrategySignal, sizing Sizing) (domain.OrderSet, error) {
	if sizing.Spot <= 0 {
		return domain.OrderSet{}, domain.NewValidationError("spot", "spot must be positive, got %.2f", sizing.Spot)
	}

	step := strikeStep(signal.Symbol)
	shortPut := roundToStrike(sizing.Spot*(1-strangleShortOffsetPct), step)
	shortCall := roundToStrike(sizing.Spot*(1+strangleShortOffsetPct), step)
	wing := roundToStrike(sizing.Spot*strangleWingPct, step)

	wingSteps := int(wing / step)
	if wingSteps < strangleMinWingSteps || wingSteps > strangleMaxWingSteps {
		return domain.OrderSet{}, domain.NewValidationError("wing",
			"wing width %.0f (%d steps) outside declared bounds [%d,%d]",
			wing, wingSteps, strangleMinWingSteps, strangleMaxWingSteps)
	}

	longPut := shortPut - wing
	longCall := shortCall + wing
	if !strikesAscending(longPut, shortPut, shortCall, longCall) {
		return domain.OrderSet{}, domain.NewValidationError("strikes",
			"strangle strikes not strictly monotonic: %.0f %.0f %.0f %.0f",
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

func (v *HedgedStrangle) OnRiskTick(mtm float64, ctx RiskContext) RiskAction {
	return evalRiskLadder(mtm, v.profile, ctx, func(_ float64, ctx RiskContext) RiskAction {
		threshold := strangleShortOffsetPct * 100 * 0.7
		if ctx.SpotMovePct >= threshold || ctx.SpotMovePct <= -threshold {
			return RiskAdjustHedge
		}
		return RiskNone
	})
}

func (v *HedgedStrangle) RiskMetrics(set domain.OrderSet, spot float64) RiskMetrics {
	return definedRiskMetrics(set, v.profile.CreditFraction)
}
