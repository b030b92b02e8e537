package strategies

import "math"

// strikeStep returns the strike interval for an underlying.
func strikeStep(symbol string) float64 {
	switch symbol {
	case "BANKNIFTY":
		return 100
	case "NIFTY":
		return 50
	default:
		return 50
	}
}

// roundToStrike snaps a price to the nearest listed strike.
func roundToStrike(price, step float64) float64 {
	if step <= 0 {
		return price
	}
	return math.Round(price/step) * step
}

// strikesAscending reports whether the strikes are strictly increasing.
// Rounding can collapse adjacent strikes on small spots; generation treats
// that as a structural failure, not something to silently widen.
func strikesAscending(strikes ...float64) bool {
	for i := 1; i < len(strikes); i++ {
		if strikes[i] <= strikes[i-1] {
			return false
		}
	}
	return true
}
