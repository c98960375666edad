package usecase

import (
	"context"
	"sync"
	"time"

	"CoinStrat/internal/domain/models"
	drepo "CoinStrat/internal/domain/repository"
	applogger "CoinStrat/pkg/logger"
	"CoinStrat/pkg/util"
)

// LivePriceCollector keeps the latest streamed BTC close for the current day.
type LivePriceCollector struct {
	stream     drepo.PriceStream
	metrics    drepo.Metrics
	log        *applogger.Logger
	staleAfter time.Duration
	now        func() time.Time

	mu    sync.RWMutex
	price float64
	at    time.Time
	sym   string
}

// NewLivePriceCollector creates a collector. staleAfter <= 0 never expires a price.
func NewLivePriceCollector(stream drepo.PriceStream, metrics drepo.Metrics, staleAfter time.Duration, l *applogger.Logger) *LivePriceCollector {
	if l == nil {
		l = applogger.Nop()
	}
	return &LivePriceCollector{stream: stream, metrics: metrics, log: l, staleAfter: staleAfter, now: time.Now}
}

// IsConnected returns true if the price stream is connected.
func (c *LivePriceCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *LivePriceCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	go c.consume(ctx)
	return nil
}

func (c *LivePriceCollector) consume(ctx context.Context) {
	for {
		tickCh, errCh := c.stream.Read(ctx)
		c.drain(ctx, tickCh, errCh)
		if ctx.Err() != nil {
			return
		}
		c.metrics.RecordError("stream")
		for {
			err := c.stream.Reconnect(ctx)
			if err == nil {
				break
			}
			if ctx.Err() != nil {
				return
			}
			c.log.Warn("price stream reconnect failed", applogger.Error(err))
		}
	}
}

// drain returns when the read loop ends.
func (c *LivePriceCollector) drain(ctx context.Context, tickCh <-chan *models.PriceTick, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errCh:
			if ok && err != nil {
				c.log.Warn("price stream read failed", applogger.Error(err))
			}
			if !ok {
				errCh = nil
			}
		case t, ok := <-tickCh:
			if !ok {
				return
			}
			c.Observe(t)
		}
	}
}

// Observe records one tick.
func (c *LivePriceCollector) Observe(t *models.PriceTick) {
	if t == nil || t.Price <= 0 {
		return
	}
	c.mu.Lock()
	if t.Time.Before(c.at) {
		c.mu.Unlock()
		return
	}
	c.price, c.at, c.sym = t.Price, t.Time, t.Symbol
	c.mu.Unlock()
	c.metrics.RecordLastPrice(t.Symbol, t.Price)
}

// Latest returns the last price if it belongs to today and is not stale.
func (c *LivePriceCollector) Latest() (float64, time.Time, bool) {
	c.mu.RLock()
	price, at := c.price, c.at
	c.mu.RUnlock()
	if at.IsZero() {
		return 0, time.Time{}, false
	}
	now := c.now()
	if !util.Day(at).Equal(util.Day(now)) {
		return 0, time.Time{}, false
	}
	if c.staleAfter > 0 && now.Sub(at) > c.staleAfter {
		return 0, time.Time{}, false
	}
	return price, at, true
}

// Shutdown closes the stream.
func (c *LivePriceCollector) Shutdown(context.Context) error {
	return c.stream.Close()
}

var _ drepo.LivePrice = (*LivePriceCollector)(nil)
