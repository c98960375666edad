package features

import "time"

// WeeklyCloses picks the close of every week ending on a Sunday (UTC).
// It returns the closes and, for each one, the index of its Sunday in dates.
// A trailing week that has not reached its Sunday yet is left out.
func WeeklyCloses(dates []time.Time, x []float64) (closes []float64, at []int) {
	for i, d := range dates {
		if d.UTC().Weekday() != time.Sunday {
			continue
		}
		closes = append(closes, x[i])
		at = append(at, i)
	}
	return closes, at
}

// ExpandWeekly spreads weekly values back over n daily slots.
// Each weekly value holds from its index in at until the next one; slots before the first are NaN.
func ExpandWeekly(values []float64, at []int, n int) []float64 {
	out := NaNs(n)
	for k, start := range at {
		end := n
		if k+1 < len(at) {
			end = at[k+1]
		}
		for i := start; i < end && i < n; i++ {
			out[i] = values[k]
		}
	}
	return out
}
