package signals

import (
	"time"

	"CoinStrat/internal/services/features"
)

const regimeWeeks = 40

type priceRegimeResult struct {
	MA40W []float64
	Raw   []int
	On    []int
}

// scorePriceRegime compares the daily price to the 40-week MA of Sunday closes.
// The MA of a week applies from its Sunday on, so no day sees a close from its future.
func scorePriceRegime(dates []time.Time, price []float64) priceRegimeResult {
	n := len(price)
	closes, at := features.WeeklyCloses(dates, price)
	ma := features.ExpandWeekly(features.RollingMean(closes, regimeWeeks), at, n)

	res := priceRegimeResult{MA40W: ma, Raw: make([]int, n), On: make([]int, n)}
	above := make([]float64, n)
	for i := 0; i < n; i++ {
		if !isMissing(ma[i]) && !isMissing(price[i]) && price[i] >= ma[i] {
			res.Raw[i] = 1
			above[i] = 1
		}
	}

	p := persistence(above)
	for i := 0; i < n; i++ {
		if persistent(p[i]) {
			res.On[i] = 1
		}
	}
	return res
}
