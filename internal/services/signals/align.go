package signals

import (
	"math"
	"time"

	"CoinStrat/internal/domain/models"
	"CoinStrat/internal/services/features"
	"CoinStrat/pkg/util"
)

// Frame is a set of series placed on one gapless daily calendar.
// Columns[0] is the anchor, the rest follow the order given to Align.
type Frame struct {
	Dates   []time.Time
	Columns [][]float64
}

// Len returns the number of calendar days in the frame.
func (f Frame) Len() int { return len(f.Dates) }

// Calendar returns every UTC day from first to last inclusive.
func Calendar(first, last time.Time) []time.Time {
	first, last = util.Day(first), util.Day(last)
	if last.Before(first) {
		return nil
	}
	n := int(last.Sub(first)/(24*time.Hour)) + 1
	out := make([]time.Time, 0, n)
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

// Align forward-fills anchor and others onto the days between the first valid
// anchor observation and today. It returns an empty frame when the anchor has no
// valid observation on or before today.
func Align(today time.Time, anchor []models.Observation, others ...[]models.Observation) Frame {
	first, ok := firstValidDay(anchor)
	if !ok {
		return Frame{}
	}
	dates := Calendar(first, today)
	if len(dates) == 0 {
		return Frame{}
	}

	cols := make([][]float64, 0, len(others)+1)
	cols = append(cols, ForwardFill(dates, anchor))
	for _, obs := range others {
		cols = append(cols, ForwardFill(dates, obs))
	}
	return Frame{Dates: dates, Columns: cols}
}

// ForwardFill places obs on dates and carries the last valid value across gaps.
// The latest observation before dates[0] seeds the walk; days before any
// observation stay NaN. For duplicated days the last one in obs wins.
func ForwardFill(dates []time.Time, obs []models.Observation) []float64 {
	out := features.NaNs(len(dates))
	if len(dates) == 0 || len(obs) == 0 {
		return out
	}

	start := dates[0]
	lookup := make(map[time.Time]float64, len(obs))
	last := math.NaN()
	var seedDay time.Time
	for _, o := range obs {
		if !o.Valid() {
			continue
		}
		d := util.Day(o.Date)
		if d.Before(start) {
			if seedDay.IsZero() || !d.Before(seedDay) {
				seedDay = d
				last = o.Value
			}
			continue
		}
		lookup[d] = o.Value
	}

	for i, d := range dates {
		if v, ok := lookup[d]; ok {
			last = v
		}
		out[i] = last
	}
	return out
}

func firstValidDay(obs []models.Observation) (time.Time, bool) {
	var first time.Time
	found := false
	for _, o := range obs {
		if !o.Valid() {
			continue
		}
		d := util.Day(o.Date)
		if !found || d.Before(first) {
			first = d
			found = true
		}
	}
	return first, found
}

func isMissing(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}
