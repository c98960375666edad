package signals

import (
	"time"

	"CoinStrat/internal/services/features"
)

const (
	sahmRecession     = 0.50
	sahmExpansion     = 0.35
	yieldExpansion    = 0.75
	newOrdersYoY      = 365
	newOrdersMomentum = 90

	cycleSeed = 1
)

type cycleResult struct {
	NewOrdersYoY []float64 // fraction
	NewOrdersMom []float64
	Score        []int
}

// CycleScore grades the business cycle: 0 recession risk, 1 neutral, 2 expansion.
// A NaN input never triggers the clause it belongs to.
func CycleScore(sahm, yieldCurve, noYoY, noMom float64) int {
	recession := sahm >= sahmRecession ||
		yieldCurve < 0 ||
		(noYoY < 0 && noMom <= 0)
	if recession {
		return 0
	}
	if sahm < sahmExpansion && yieldCurve >= yieldExpansion && noYoY >= 0 {
		return 2
	}
	return 1
}

func scoreCycle(dates []time.Time, sahm, yieldCurve, newOrders []float64, cf *carryTracker) cycleResult {
	n := len(sahm)
	res := cycleResult{
		NewOrdersYoY: features.PctChange(newOrders, newOrdersYoY),
		NewOrdersMom: features.Diff(newOrders, newOrdersMomentum),
		Score:        make([]int, n),
	}

	prev := cycleSeed
	for i := 0; i < n; i++ {
		if isMissing(sahm[i]) && isMissing(yieldCurve[i]) && isMissing(res.NewOrdersYoY[i]) {
			prev = cf.carry(dates[i], prev)
		} else {
			prev = CycleScore(sahm[i], yieldCurve[i], res.NewOrdersYoY[i], res.NewOrdersMom[i])
		}
		res.Score[i] = prev
	}
	return res
}
