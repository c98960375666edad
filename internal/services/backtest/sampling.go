package backtest

import (
	"time"

	"CoinStrat/internal/domain/models"
	"CoinStrat/pkg/util"
)

// Sample reduces records to the action dates of freq.
// Weekly keeps the first record of each Monday-based week, monthly the first of each calendar month.
func Sample(records []models.DailyRecord, freq models.Frequency) []models.DailyRecord {
	if freq == models.FrequencyDaily || freq == "" {
		return records
	}

	out := make([]models.DailyRecord, 0, len(records)/7+1)
	lastKey := ""
	for _, r := range records {
		key := periodKey(r.Date, freq)
		if key == lastKey {
			continue
		}
		lastKey = key
		out = append(out, r)
	}
	return out
}

func periodKey(d time.Time, freq models.Frequency) string {
	if freq == models.FrequencyMonthly {
		return util.MonthKey(d)
	}
	return util.DayKey(util.WeekStart(d))
}

// actionSet indexes the action dates of records for O(1) lookup in the simulation loop.
func actionSet(records []models.DailyRecord, freq models.Frequency) map[time.Time]struct{} {
	sampled := Sample(records, freq)
	set := make(map[time.Time]struct{}, len(sampled))
	for _, r := range sampled {
		set[r.Date] = struct{}{}
	}
	return set
}
