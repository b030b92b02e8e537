// Package model provides the optional learned probability layer: feature
// construction, a logistic classifier, artifact persistence and retraining.
// The selection path treats all of it as best-effort - any failure here
// degrades to the pure rule score.
package model

import (
	"github.com/quantroll/stratagem/internal/domain"
)

// baseFeatureCount is the number of market features before the variant
// identity encoding is appended.
const baseFeatureCount = 7

// FeatureCount returns the full vector length for a registry of n variants.
func FeatureCount(variantCount int) int {
	return baseFeatureCount + variantCount
}

// BuildFeatures encodes one (conditions, variant) pair. The variant identity
// is a one-hot tail so one model scores every variant.
func BuildFeatures(cond domain.MarketConditions, variantIdx, variantCount int) []float64 {
	features := make([]float64, 0, FeatureCount(variantCount))

	features = append(features,
		cond.VolatilityIndex/100.0,
		cond.TrendStrength,
		encodeBias(cond.Bias),
		cond.IVRank/100.0,
		clamp01(float64(cond.DaysToExpiry)/45.0),
		boolFeature(cond.VolumeSurge),
		boolFeature(cond.IsExpiryDay),
	)

	oneHot := make([]float64, variantCount)
	if variantIdx >= 0 && variantIdx < variantCount {
		oneHot[variantIdx] = 1
	}
	return append(features, oneHot...)
}

func encodeBias(b domain.DirectionalBias) float64 {
	switch b {
	case domain.BiasBullish:
		return 1
	case domain.BiasBearish:
		return -1
	default:
		return 0
	}
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
