package repository

import (
	"context"
	"time"

	"CoinStrat/internal/domain/models"
)

// SeriesSource fetches the observations of one input series.
type SeriesSource interface {
	Fetch(ctx context.Context, id models.SeriesID) ([]models.Observation, error)
}

// PriceStream delivers live BTC klines.
type PriceStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.PriceTick, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// SignalPublisher fans computed outputs out to downstream consumers.
type SignalPublisher interface {
	PublishRecord(ctx context.Context, rec models.DailyRecord) error
	PublishReport(ctx context.Context, report *models.BacktestReport) error
	Close() error
}

type Metrics interface {
	RecordFetch(series string, points int, seconds float64, err error)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
	RecordSignals(rec models.DailyRecord)
	RecordCarryForward(cf models.CarryForward)
	RecordBacktest(strategy string, totalReturn, maxDrawdown float64)
}

// LivePrice exposes the most recent streamed close for the current day.
type LivePrice interface {
	Latest() (price float64, at time.Time, ok bool)
}
