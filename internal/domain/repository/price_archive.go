package repository

import (
	"context"
	"time"

	"CoinStrat/internal/domain/models"
)

// PriceArchive stores the daily close history of a symbol.
type PriceArchive interface {
	Init(ctx context.Context) error
	Range(ctx context.Context, symbol string, from, to time.Time) ([]models.Observation, error)
	LastDate(ctx context.Context, symbol string) (time.Time, bool, error)
	Upsert(ctx context.Context, symbol string, obs []models.Observation) error
	Health(ctx context.Context) error
	Close() error
}
