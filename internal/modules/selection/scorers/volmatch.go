package scorers

import (
	"github.com/quantroll/stratagem/internal/domain"
	"github.com/quantroll/stratagem/internal/modules/strategies"
)

// volClassOrder ranks the regime buckets for adjacency scoring.
var volClassOrder = map[domain.VolatilityClass]int{
	domain.VolClassLow:      0,
	domain.VolClassModerate: 1,
	domain.VolClassHigh:     2,
	domain.VolClassExtreme:  3,
}

// VolMatch scores the categorical match between the current volatility
// regime and the regime a variant was built for.
type VolMatch struct{}

// Score is 1.0 on an exact class match, 0.5 one bucket away, 0.15 further.
func (VolMatch) Score(p strategies.Profile, cond domain.MarketConditions) float64 {
	want, ok := volClassOrder[p.VolClass]
	if !ok {
		return 0.5
	}
	have, ok := volClassOrder[cond.VolatilityClassification()]
	if !ok {
		return 0.5
	}

	switch diff := abs(want - have); diff {
	case 0:
		return 1.0
	case 1:
		return 0.5
	default:
		return 0.15
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
