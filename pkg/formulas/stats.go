// Package formulas provides the small numeric building blocks shared by the
// scoring and calibration code paths.
package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the standard deviation of a slice of float64 values
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// Consistency converts a window of per-trade returns into a [0,1] stability
// score: one minus the coefficient of variation of the window, floored at 0.
// A flat, repeatable return stream scores near 1; erratic streams approach 0.
func Consistency(returns []float64) float64 {
	if len(returns) < 2 {
		return 0.5 // not enough data to judge either way
	}

	mean := Mean(returns)
	sd := StdDev(returns)

	if sd == 0 {
		return 1.0
	}
	if mean == 0 {
		return 0
	}

	cv := sd / math.Abs(mean)
	return math.Max(0, 1.0-cv)
}

// Clamp01 clamps a value into the [0,1] interval.
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Round3 rounds to 3 decimal places
func Round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}

// Round4 rounds to 4 decimal places
func Round4(f float64) float64 {
	return math.Round(f*10000) / 10000
}
