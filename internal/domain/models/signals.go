package models

import "time"

// CarryForward counts, per factor, the days whose score was carried from the previous day.
type CarryForward struct {
	Valuation int `json:"valuation"`
	Liquidity int `json:"liquidity"`
	DXY       int `json:"dxy"`
	Cycle     int `json:"cycle"`
}

// Diagnostics is returned alongside a computed table.
type Diagnostics struct {
	CarryForward CarryForward `json:"carry_forward"`
}

// SignalSnapshot is one full computation of the signal table.
// Note: no transport (json/http) concerns beyond tags.
type SignalSnapshot struct {
	ComputedAt   time.Time           `json:"computed_at"`
	Records      []DailyRecord       `json:"records"`
	Diagnostics  Diagnostics         `json:"diagnostics"`
	SeriesPoints map[SeriesID]int    `json:"series_points"`
	Errors       map[SeriesID]string `json:"errors,omitempty"`
}

// Latest returns the last record of the snapshot.
func (s *SignalSnapshot) Latest() (DailyRecord, bool) {
	if s == nil || len(s.Records) == 0 {
		return DailyRecord{}, false
	}
	return s.Records[len(s.Records)-1], true
}

// Between returns the records whose date falls in [from, to]. Zero bounds are open.
func (s *SignalSnapshot) Between(from, to time.Time) []DailyRecord {
	if s == nil {
		return nil
	}
	out := make([]DailyRecord, 0, len(s.Records))
	for _, r := range s.Records {
		if !from.IsZero() && r.Date.Before(from) {
			continue
		}
		if !to.IsZero() && r.Date.After(to) {
			continue
		}
		out = append(out, r)
	}
	return out
}
