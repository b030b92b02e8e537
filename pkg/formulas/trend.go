package formulas

import (
	"math"

	"github.com/markcheno/go-talib"
)

// TrendStrength measures how strongly a close-price series is trending,
// normalized to [0,1]. It blends the EMA(9)/EMA(21) spread with the 10-bar
// rate of change, both expressed relative to the last price.
//
// Returns nil when there is not enough history (fewer than 30 closes).
func TrendStrength(closes []float64) *float64 {
	if len(closes) < 30 {
		return nil
	}

	last := closes[len(closes)-1]
	if last <= 0 {
		return nil
	}

	fast := talib.Ema(closes, 9)
	slow := talib.Ema(closes, 21)
	roc := talib.Roc(closes, 10)

	spread := math.Abs(fast[len(fast)-1]-slow[len(slow)-1]) / last
	momentum := math.Abs(roc[len(roc)-1]) / 100.0

	// 1.5% EMA spread or 3% ten-bar move each saturate their half
	strength := Clamp01(spread/0.015)*0.6 + Clamp01(momentum/0.03)*0.4
	strength = Clamp01(strength)
	return &strength
}

// TrendDirection returns +1 for an up-trending series, -1 for down, 0 for
// flat, using the same EMA pair as TrendStrength. Nil-safe companion: with
// fewer than 30 closes it reports 0.
func TrendDirection(closes []float64) int {
	if len(closes) < 30 {
		return 0
	}

	fast := talib.Ema(closes, 9)
	slow := talib.Ema(closes, 21)
	last := closes[len(closes)-1]
	if last <= 0 {
		return 0
	}

	spread := (fast[len(fast)-1] - slow[len(slow)-1]) / last
	switch {
	case spread > 0.002:
		return 1
	case spread < -0.002:
		return -1
	default:
		return 0
	}
}
