package strategies

import (
	"math"

	"github.com/quantroll/stratagem/internal/domain"
)

// definedRiskMetrics estimates the risk surface of a defined-risk structure
// (shorts fully covered by wings) from its strike geometry. The assumed
// credit is creditFraction of the narrowest wing width - an estimate only;
// real premiums come from outside this core.
func definedRiskMetrics(set domain.OrderSet, creditFraction float64) RiskMetrics {
	width := narrowestWingWidth(set)
	if width <= 0 {
		return RiskMetrics{}
	}

	qty := bodyQuantity(set)
	credit := width * creditFraction * float64(qty)
	maxLoss := width*float64(qty) - credit

	return RiskMetrics{
		MaxLoss:        maxLoss,
		MaxProfit:      credit,
		MarginEstimate: maxLoss * 1.15,
	}
}

// narrowestWingWidth finds the smallest strike distance between a short body
// leg and a hedge leg of the same instrument kind.
func narrowestWingWidth(set domain.OrderSet) float64 {
	width := math.MaxFloat64
	found := false
	for _, body := range set.Legs {
		if body.Hedge || body.Side != domain.SideSell {
			continue
		}
		for _, hedge := range set.Legs {
			if !hedge.Hedge || hedge.Instrument != body.Instrument {
				continue
			}
			d := math.Abs(hedge.Strike - body.Strike)
			if d > 0 && d < width {
				width = d
				found = true
			}
		}
	}
	if !found {
		return 0
	}
	return width
}

// bodyQuantity returns the largest short-leg quantity in the set.
func bodyQuantity(set domain.OrderSet) int {
	qty := 0
	for _, leg := range set.Legs {
		if !leg.Hedge && leg.Side == domain.SideSell && leg.Quantity > qty {
			qty = leg.Quantity
		}
	}
	return qty
}
