package service

import (
	"time"

	"CoinStrat/internal/domain/models"
)

// SignalEngine derives the daily signal table from raw series.
type SignalEngine interface {
	Compute(set models.SeriesSet, today time.Time) ([]models.DailyRecord, models.Diagnostics)
}

// Backtester replays a signal table against the DCA strategies.
type Backtester interface {
	Run(records []models.DailyRecord, cfg models.BacktestConfig) []models.StrategyResult
}
