package sources

import (
	"context"
	"errors"
	"time"

	"CoinStrat/internal/domain/models"
	"CoinStrat/internal/domain/repository"
	"CoinStrat/pkg/cache"
	applogger "CoinStrat/pkg/logger"
)

const seriesKeyPrefix = "series"

// Cached memoizes non-empty fetch results per series for ttl.
type Cached struct {
	next  repository.SeriesSource
	cache cache.Service
	ttl   time.Duration
	log   *applogger.Logger
}

func NewCached(next repository.SeriesSource, c cache.Service, ttl time.Duration, l *applogger.Logger) *Cached {
	if l == nil {
		l = applogger.Nop()
	}
	return &Cached{next: next, cache: c, ttl: ttl, log: l}
}

func (c *Cached) Fetch(ctx context.Context, id models.SeriesID) ([]models.Observation, error) {
	key := cache.GenerateKey(seriesKeyPrefix, string(id))

	var obs []models.Observation
	err := c.cache.Get(ctx, key, &obs)
	if err == nil {
		return obs, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		c.log.Warn("series cache read failed", applogger.String("series", string(id)), applogger.Error(err))
	}

	obs, err = c.next.Fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(obs) > 0 {
		if err := c.cache.Set(ctx, key, obs, c.ttl); err != nil {
			c.log.Warn("series cache write failed", applogger.String("series", string(id)), applogger.Error(err))
		}
	}
	return obs, nil
}
