package metrics

import "CoinStrat/internal/domain/models"

// Nop discards everything. Used by one-shot CLI commands.
type Nop struct{}

func (Nop) RecordFetch(string, int, float64, error) {}
func (Nop) RecordError(string)                      {}
func (Nop) RecordLastPrice(string, float64)         {}
func (Nop) RecordLatency(string, float64)           {}
func (Nop) RecordSignals(models.DailyRecord)        {}
func (Nop) RecordCarryForward(models.CarryForward)  {}
func (Nop) RecordBacktest(string, float64, float64) {}
