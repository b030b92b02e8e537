package scorers

import (
	"math"

	"github.com/quantroll/stratagem/internal/domain"
	"github.com/quantroll/stratagem/internal/modules/strategies"
	"github.com/quantroll/stratagem/pkg/formulas"
)

// RiskAdjusted scores a variant's declared reward-to-risk shape against the
// current regime. It starts neutral and applies discounts for carrying open
// risk into a hostile tape.
type RiskAdjusted struct{}

// Score rates the profile's risk posture under current conditions.
func (RiskAdjusted) Score(p strategies.Profile, cond domain.MarketConditions) float64 {
	score := 0.5

	// Reward-to-risk ratio above 1.0 earns credit, below costs it.
	if p.RiskFactor > 0 {
		ratio := p.RewardFactor / p.RiskFactor
		score += 0.25 * formulas.Clamp01((ratio-0.5)/1.5)
	}

	class := cond.VolatilityClassification()

	// Open risk is punished hardest when volatility is extreme.
	switch class {
	case domain.VolClassExtreme:
		score -= 0.35 * p.RiskFactor
	case domain.VolClassHigh:
		score -= 0.15 * p.RiskFactor
	}

	// A tape already moving hard against conviction-free structures. A 2%
	// intraday index move costs the full discount.
	if !p.Directional {
		score -= 0.15 * formulas.Clamp01(math.Abs(cond.IndexChangePct)/2)
		if cond.VolumeSurge {
			score -= 0.10
		}
	}

	// Short runway amplifies gamma risk for every structure.
	if cond.DaysToExpiry <= 3 {
		score -= 0.10 + 0.10*p.RiskFactor
	}

	// Hedged structures keep a floor under the discounting.
	if p.HedgeRequired && score < 0.2 {
		score = 0.2
	}

	return formulas.Round4(formulas.Clamp01(score))
}
