// Package scorers holds the individual scoring dimensions composed by the
// selection scorer. Every scorer returns a value in [0,1] and falls back to a
// neutral 0.5 when its inputs are missing, so one starved dimension cannot
// zero out a candidate.
package scorers

import (
	"github.com/quantroll/stratagem/internal/modules/performance"
	"github.com/quantroll/stratagem/pkg/formulas"
)

// Performance scores a variant's realized track record. Variants without
// enough history score neutral rather than zero, so new variants are not
// starved of selections before they can accumulate a record.
type Performance struct {
	// MinTrades is the history floor below which the score is neutral.
	MinTrades int
	// TargetWinRate maps to a 0.8 sub-score; higher win rates approach 1.0.
	TargetWinRate float64
	// TargetAvgReturn maps to a 0.8 sub-score on the return dimension.
	TargetAvgReturn float64
}

// DefaultPerformance returns the scorer with the standard targets.
func DefaultPerformance(minTrades int) Performance {
	return Performance{
		MinTrades:       minTrades,
		TargetWinRate:   0.55,
		TargetAvgReturn: 0.03,
	}
}

// Score rates the snapshot. A nil snapshot or one below the history floor
// scores neutral 0.5.
func (s Performance) Score(snap *performance.Snapshot) float64 {
	if snap == nil || snap.Trades < s.MinTrades {
		return 0.5
	}

	winScore := s.winRateScore(snap.WinRate)
	returnScore := s.avgReturnScore(snap.AvgReturn)

	composite := 0.5*winScore + 0.3*returnScore + 0.2*formulas.Clamp01(snap.Consistency)
	return formulas.Round4(formulas.Clamp01(composite))
}

// winRateScore is piecewise linear: 0 at zero, 0.8 at the target, 1.0 from
// 20 points above the target.
func (s Performance) winRateScore(winRate float64) float64 {
	switch {
	case winRate <= 0:
		return 0
	case winRate < s.TargetWinRate:
		return 0.8 * winRate / s.TargetWinRate
	case winRate < s.TargetWinRate+0.20:
		return 0.8 + 0.2*(winRate-s.TargetWinRate)/0.20
	default:
		return 1.0
	}
}

// avgReturnScore is piecewise linear: 0 at -target or worse, 0.5 at
// break-even, 0.8 at the target, 1.0 from twice the target.
func (s Performance) avgReturnScore(avgReturn float64) float64 {
	t := s.TargetAvgReturn
	switch {
	case avgReturn <= -t:
		return 0
	case avgReturn < 0:
		return 0.5 * (avgReturn + t) / t
	case avgReturn < t:
		return 0.5 + 0.3*avgReturn/t
	case avgReturn < 2*t:
		return 0.8 + 0.2*(avgReturn-t)/t
	default:
		return 1.0
	}
}
