package strategies

import (
	"github.com/quantroll/stratagem/internal/domain"
)

// DirectionalSpread is a two-leg credit spread sold against the trend: a put
// spread under a bullish tape, a call spread over a bearish one. The long
// further-OTM leg is the hedge and routes first.
type DirectionalSpread struct {
	profile Profile
}

const (
	spreadShortOffsetPct = 0.015
	spreadWidthPct       = 0.01
	spreadMinTrend       = 0.35
	spreadMinWidthSteps  = 1
	spreadMaxWidthSteps  = 10
)

// NewDirectionalSpread creates the directional credit spread variant.
func NewDirectionalSpread(whitelist []string) *DirectionalSpread {
	return &DirectionalSpread{
		profile: Profile{
			Name:           "DIRECTIONAL_SPREAD",
			MinLegs:        2,
			MaxLegs:        2,
			Band:           VolatilityBand{Min: 12, Max: 26},
			Whitelist:      whitelist,
			HedgeRequired:  true,
			VolClass:       domain.VolClassModerate,
			Directional:    true,
			RiskFactor:     0.45,
			RewardFactor:   0.05,
			PreferredDTE:   15,
			DTETolerance:   10,
			StopPerLot:     1800,
			TargetPerLot:   1100,
			CreditFraction: 0.35,
		},
	}
}

func (v *DirectionalSpread) Name() string     { return v.profile.Name }
func (v *DirectionalSpread) Profile() Profile { return v.profile }

// Evaluate requires an actual direction: a non-neutral bias backed by enough
// trend strength.
func (v *DirectionalSpread) Evaluate(cond domain.MarketConditions, limits Limits) bool {
	if !baseEvaluate(v.profile, cond, limits) {
		return false
	}
	if cond.Bias == domain.BiasNeutral {
		return false
	}
	return cond.TrendStrength >= spreadMinTrend
}

func (v *DirectionalSpread) GenerateOrders(signal domain.StrategySignal, sizing Sizing) (domain.OrderSet, error) {
	if sizing.Spot <= 0 {
		return domain.OrderSet{}, domain.NewValidationError("spot", "spot must be positive, got %.2f", sizing.Spot)
	}

	step := strikeStep(signal.Symbol)
	width := roundToStrike(sizing.Spot*spreadWidthPct, step)
	widthSteps := int(width / step)
	if widthSteps < spreadMinWidthSteps || widthSteps > spreadMaxWidthSteps {
		return domain.OrderSet{}, domain.NewValidationError("width",
			"spread width %.0f (%d steps) outside declared bounds [%d,%d]",
			width, widthSteps, spreadMinWidthSteps, spreadMaxWidthSteps)
	}

	// Bullish -> put credit spread below spot; bearish -> call spread above.
	// The signal carries the bias of the snapshot it was selected under.
	bullish := signal.Bias != domain.BiasBearish

	var short, long float64
	var kind domain.InstrumentKind
	if bullish {
		kind = domain.InstrumentPut
		short = roundToStrike(sizing.Spot*(1-spreadShortOffsetPct), step)
		long = short - width
		if !strikesAscending(long, short) {
			return domain.OrderSet{}, domain.NewValidationError("strikes",
				"spread strikes not strictly monotonic: %.0f %.0f", long, short)
		}
	} else {
		kind = domain.InstrumentCall
		short = roundToStrike(sizing.Spot*(1+spreadShortOffsetPct), step)
		long = short + width
		if !strikesAscending(short, long) {
			return domain.OrderSet{}, domain.NewValidationError("strikes",
				"spread strikes not strictly monotonic: %.0f %.0f", short, long)
		}
	}

	qty := sizing.Lots * sizing.LotSize
	set := domain.OrderSet{
		Variant: v.profile.Name,
		Legs: []domain.OrderLeg{
			{Underlying: signal.Symbol, Expiry: sizing.Expiry, Strike: long, Instrument: kind, Side: domain.SideBuy, Quantity: qty, Hedge: true, Role: "protection", Priority: 0},
			{Underlying: signal.Symbol, Expiry: sizing.Expiry, Strike: short, Instrument: kind, Side: domain.SideSell, Quantity: qty, Hedge: false, Role: "short", Priority: 1},
		},
	}

	if err := domain.ValidateOrderSet(set, v.profile.Constraints()); err != nil {
		return domain.OrderSet{}, err
	}
	return set, nil
}

// OnRiskTick uses the plain ladder; a defined-risk two-legger has no
// structure-specific adjustment worth advising.
func (v *DirectionalSpread) OnRiskTick(mtm float64, ctx RiskContext) RiskAction {
	return evalRiskLadder(mtm, v.profile, ctx, nil)
}

func (v *DirectionalSpread) RiskMetrics(set domain.OrderSet, spot float64) RiskMetrics {
	return definedRiskMetrics(set, v.profile.CreditFraction)
}
