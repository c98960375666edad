package signals

import "time"

const (
	mvrvDeepValue    = 1.0
	mvrvValue        = 1.8
	mvrvFair         = 3.5
	soprCapitulation = 1.0

	valuationSeed = 0
)

// ValuationScore grades one day from MVRV and LTH-SOPR on a 0..3 scale.
// mvrv must be finite; a NaN sopr never satisfies a SOPR clause.
func ValuationScore(mvrv, sopr float64) int {
	soprLow := sopr < soprCapitulation
	switch {
	case mvrv < mvrvDeepValue && soprLow:
		return 3
	case mvrv < mvrvDeepValue, mvrv < mvrvValue && soprLow:
		return 2
	case mvrv < mvrvFair:
		return 1
	default:
		return 0
	}
}

func scoreValuation(dates []time.Time, mvrv, sopr []float64, cf *carryTracker) []int {
	out := make([]int, len(mvrv))
	prev := valuationSeed
	for i := range mvrv {
		if isMissing(mvrv[i]) {
			prev = cf.carry(dates[i], prev)
		} else {
			prev = ValuationScore(mvrv[i], sopr[i])
		}
		out[i] = prev
	}
	return out
}
