package strategies

import (
	"github.com/quantroll/stratagem/internal/domain"
)

// IronFly sells the ATM straddle and buys protective wings. The tightest of
// the neutral structures; wants a quiet, low-volatility tape.
type IronFly struct {
	profile Profile
}

const (
	flyWingPct      = 0.02
	flyMinWingSteps = 2
	flyMaxWingSteps = 16
)

// NewIronFly creates the iron butterfly variant.
func NewIronFly(whitelist []string) *IronFly {
	return &IronFly{
		profile: Profile{
			Name:           "IRON_FLY",
			MinLegs:        4,
			MaxLegs:        4,
			Band:           VolatilityBand{Min: 10, Max: 20},
			Whitelist:      whitelist,
			HedgeRequired:  true,
			VolClass:       domain.VolClassLow,
			Directional:    false,
			RiskFactor:     0.30,
			RewardFactor:   0.05,
			PreferredDTE:   20,
			DTETolerance:   12,
			StopPerLot:     2000,
			TargetPerLot:   1200,
			CreditFraction: 0.45,
		},
	}
}

func (v *IronFly) Name() string     { return v.profile.Name }
func (v *IronFly) Profile() Profile { return v.profile }

func (v *IronFly) Evaluate(cond domain.MarketConditions, limits Limits) bool {
	return baseEvaluate(v.profile, cond, limits)
}

func (v *IronFly) GenerateOrders(signal domain.StrategySignal, sizing Sizing) (domain.OrderSet, error) {
	if sizing.Spot <= 0 {
		return domain.OrderSet{}, domain.NewValidationError("spot", "spot must be positive, got %.2f", sizing.Spot)
	}

	step := strikeStep(signal.Symbol)
	atm := roundToStrike(sizing.Spot, step)
	wing := roundToStrike(sizing.Spot*flyWingPct, step)

	wingSteps := int(wing / step)
	if wingSteps < flyMinWingSteps || wingSteps > flyMaxWingSteps {
		return domain.OrderSet{}, domain.NewValidationError("wing",
			"wing width %.0f (%d steps) outside declared bounds [%d,%d]",
			wing, wingSteps, flyMinWingSteps, flyMaxWingSteps)
	}

	longPut := atm - wing
	longCall := atm + wing
	if !strikesAscending(longPut, atm, longCall) {
		return domain.OrderSet{}, domain.NewValidationError("strikes",
			"fly strikes not strictly monotonic: %.0f %.0f %.0f", longPut, atm, longCall)
	}

	qty := sizing.Lots * sizing.LotSize
	set := domain.OrderSet{
		Variant: v.profile.Name,
		Legs: []domain.OrderLeg{
			{Underlying: signal.Symbol, Expiry: sizing.Expiry, Strike: longPut, Instrument: domain.InstrumentPut, Side: domain.SideBuy, Quantity: qty, Hedge: true, Role: "wing_put", Priority: 0},
			{Underlying: signal.Symbol, Expiry: sizing.Expiry, Strike: longCall, Instrument: domain.InstrumentCall, Side: domain.SideBuy, Quantity: qty, Hedge: true, Role: "wing_call", Priority: 1},
			{Underlying: signal.Symbol, Expiry: sizing.Expiry, Strike: atm, Instrument: domain.InstrumentPut, Side: domain.SideSell, Quantity: qty, Hedge: false, Role: "short_put", Priority: 2},
			{Underlying: signal.Symbol, Expiry: sizing.Expiry, Strike: atm, Instrument: domain.InstrumentCall, Side: domain.SideSell, Quantity: qty, Hedge: false, Role: "short_call", Priority: 3},
		},
	}

	if err := domain.ValidateOrderSet(set, v.profile.Constraints()); err != nil {
		return domain.OrderSet{}, err
	}
	return set, nil
}

// OnRiskTick adds a hedge-adjust advisory once spot drifts a third of the
// wing distance away from the body.
func (v *IronFly) OnRiskTick(mtm float64, ctx RiskContext) RiskAction {
	return evalRiskLadder(mtm, v.profile, ctx, func(_ float64, ctx RiskContext) RiskAction {
		drift := flyWingPct * 100 / 3
		if ctx.SpotMovePct >= drift || ctx.SpotMovePct <= -drift {
			return RiskAdjustHedge
		}
		return RiskNone
	})
}

func (v *IronFly) RiskMetrics(set domain.OrderSet, spot float64) RiskMetrics {
	return definedRiskMetrics(set, v.profile.CreditFraction)
}
