package scorers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quantroll/stratagem/internal/domain"
	"github.com/quantroll/stratagem/internal/modules/strategies"
)

func calmConditions() domain.MarketConditions {
	return domain.MarketConditions{
		Symbol:          "NIFTY",
		Spot:            25000,
		VolatilityIndex: 18,
		IVRank:          50,
		DaysToExpiry:    20,
	}
}

func hedgedProfile(directional bool) strategies.Profile {
	return strategies.Profile{
		Name:          "TEST_VARIANT",
		HedgeRequired: true,
		Directional:   directional,
		RiskFactor:    0.40,
		RewardFactor:  0.04,
	}
}

func TestRiskAdjustedDiscountsAdverseIndexMove(t *testing.T) {
	scorer := RiskAdjusted{}
	p := hedgedProfile(false)

	calm := scorer.Score(p, calmConditions())

	moving := calmConditions()
	moving.IndexChangePct = -1.8
	assert.Less(t, scorer.Score(p, moving), calm,
		"a hard intraday move costs a range-bound structure")

	// The discount scales with the move magnitude, sign ignored
	mild := calmConditions()
	mild.IndexChangePct = 0.5
	assert.Less(t, scorer.Score(p, moving), scorer.Score(p, mild))
	assert.Equal(t, scorer.Score(p, moving), func() float64 {
		up := calmConditions()
		up.IndexChangePct = 1.8
		return scorer.Score(p, up)
	}())
}

func TestRiskAdjustedIndexMoveSparesDirectionalStructures(t *testing.T) {
	scorer := RiskAdjusted{}
	p := hedgedProfile(true)

	calm := scorer.Score(p, calmConditions())
	moving := calmConditions()
	moving.IndexChangePct = -1.8
	assert.Equal(t, calm, scorer.Score(p, moving),
		"a directional structure rides the move, no discount")
}

func TestRiskAdjustedExtremeVolPunishesRiskFactor(t *testing.T) {
	scorer := RiskAdjusted{}

	extreme := calmConditions()
	extreme.VolatilityIndex = 32

	conservative := hedgedProfile(false)
	conservative.RiskFactor = 0.30
	aggressive := hedgedProfile(false)
	aggressive.RiskFactor = 0.60

	assert.Greater(t, scorer.Score(conservative, extreme), scorer.Score(aggressive, extreme),
		"extreme volatility favors the conservative profile")
}

func TestRiskAdjustedShortRunwayDiscount(t *testing.T) {
	scorer := RiskAdjusted{}
	p := hedgedProfile(false)

	far := scorer.Score(p, calmConditions())
	near := calmConditions()
	near.DaysToExpiry = 2
	assert.Less(t, scorer.Score(p, near), far)
}
