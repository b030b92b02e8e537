// Package selection runs the decision cycle: gate the market, filter the
// variant registry down to viable candidates, score them and emit at most one
// StrategySignal. "No decision" is a normal value-level outcome, never an
// error.
package selection

// Component names used in CandidateScore breakdowns.
const (
	ComponentPerformance  = "performance"
	ComponentConditionFit = "condition_fit"
	ComponentRiskAdjusted = "risk_adjusted"
	ComponentVolMatch     = "vol_match"
	ComponentModel        = "model"
)

// CandidateScore is one scored candidate with its component breakdown.
type CandidateScore struct {
	Variant    string             `json:"variant"`
	Score      float64            `json:"score"`
	Reason     string             `json:"reason"`
	Components map[string]float64 `json:"components"`
}

// reasonFor maps the dominant weighted component to a stable reason string.
// Ties resolve in fixed priority order so identical inputs produce identical
// reasons.
func reasonFor(components map[string]float64, weights map[string]float64) string {
	ordered := []struct {
		component string
		reason    string
	}{
		{ComponentPerformance, "strong recent performance"},
		{ComponentConditionFit, "market conditions fit"},
		{ComponentVolMatch, "volatility regime match"},
		{ComponentRiskAdjusted, "favorable risk profile"},
	}

	best, bestContribution := "balanced profile", -1.0
	for _, entry := range ordered {
		contribution := components[entry.component] * weights[entry.component]
		if contribution > bestContribution {
			best, bestContribution = entry.reason, contribution
		}
	}
	return best
}

// reasonRank orders reasons for score tie-breaking: performance beats
// market-condition beats volatility-match beats risk-adjusted beats the
// balanced fallback. Lower rank wins.
func reasonRank(reason string) int {
	switch reason {
	case "strong recent performance":
		return 0
	case "market conditions fit":
		return 1
	case "volatility regime match":
		return 2
	case "favorable risk profile":
		return 3
	default:
		return 4
	}
}
