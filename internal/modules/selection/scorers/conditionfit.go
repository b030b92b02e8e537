package scorers

import (
	"math"

	"github.com/quantroll/stratagem/internal/domain"
	"github.com/quantroll/stratagem/internal/modules/strategies"
	"github.com/quantroll/stratagem/pkg/formulas"
)

// ConditionFit scores how well current conditions sit inside a variant's
// declared operating envelope. Candidates have already passed the hard band
// check; this dimension differentiates within the band.
type ConditionFit struct{}

// Score combines band centrality, trend alignment and expiry-window fit.
func (ConditionFit) Score(p strategies.Profile, cond domain.MarketConditions) float64 {
	composite := 0.45*bandCentrality(p.Band, cond.VolatilityIndex) +
		0.35*trendAlignment(p, cond) +
		0.20*dteFit(p, cond.DaysToExpiry)
	return formulas.Round4(formulas.Clamp01(composite))
}

// bandCentrality is triangular: 1.0 at the band center, 0.25 at the edges.
// Readings inside the band never score below the floor.
func bandCentrality(band strategies.VolatilityBand, vix float64) float64 {
	half := (band.Max - band.Min) / 2
	if half <= 0 {
		return 0.5
	}
	dist := math.Abs(vix-band.Center()) / half
	return formulas.Clamp01(1.0 - 0.75*formulas.Clamp01(dist))
}

// trendAlignment rewards directional variants when a clear bias and strong
// trend agree, and rewards neutral variants when the market is drifting.
func trendAlignment(p strategies.Profile, cond domain.MarketConditions) float64 {
	if p.Directional {
		if cond.Bias == domain.BiasNeutral {
			return 0.2
		}
		// Strong trend with a declared bias is the directional sweet spot.
		return formulas.Clamp01(0.3 + 0.7*cond.TrendStrength)
	}

	// Range-bound structures want the opposite: weak trend, no conviction.
	score := 1.0 - cond.TrendStrength
	if cond.Bias != domain.BiasNeutral {
		score -= 0.2
	}
	return formulas.Clamp01(score)
}

// dteFit is 1.0 inside the preferred entry window and decays linearly to 0
// at twice the tolerance outside it.
func dteFit(p strategies.Profile, dte int) float64 {
	if p.PreferredDTE <= 0 || p.DTETolerance <= 0 {
		return 0.5
	}
	dist := math.Abs(float64(dte - p.PreferredDTE))
	tol := float64(p.DTETolerance)
	if dist <= tol {
		return 1.0
	}
	return formulas.Clamp01(1.0 - (dist-tol)/tol)
}
