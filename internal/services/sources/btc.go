package sources

import (
	"context"
	"fmt"
	"sort"
	"time"

	"CoinStrat/internal/domain/models"
	"CoinStrat/internal/domain/repository"
	applogger "CoinStrat/pkg/logger"
	"CoinStrat/pkg/util"
)

// BTC serves the BTCUSD anchor series: archived history plus a Binance tail.
type BTC struct {
	archive      repository.PriceArchive
	klines       *Binance
	historyStart time.Time
	now          func() time.Time
	log          *applogger.Logger
}

// BTCOption configures BTC.
type BTCOption func(*BTC)

// WithArchive sets the history store; tail rows are written back to it.
func WithArchive(a repository.PriceArchive) BTCOption {
	return func(b *BTC) { b.archive = a }
}

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) BTCOption {
	return func(b *BTC) { b.now = now }
}

func NewBTC(klines *Binance, historyStart time.Time, l *applogger.Logger, opts ...BTCOption) *BTC {
	if l == nil {
		l = applogger.Nop()
	}
	b := &BTC{
		klines:       klines,
		historyStart: util.Day(historyStart),
		now:          time.Now,
		log:          l,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *BTC) Fetch(ctx context.Context, id models.SeriesID) ([]models.Observation, error) {
	if id != models.SeriesBTCUSD {
		return nil, fmt.Errorf("btc %s: %w", id, models.ErrUnknownSeries)
	}

	now := b.now().UTC()
	today := util.Day(now)
	history, tailStart := b.loadHistory(ctx, today)

	var tail []models.Observation
	if tailStart.Before(now) {
		var err error
		tail, err = b.klines.DailyCloses(ctx, tailStart, now)
		if err != nil {
			if len(history) == 0 {
				return nil, fmt.Errorf("btc tail: %w", err)
			}
			b.log.Warn("btc tail fetch failed, serving archived history",
				applogger.Error(err),
				applogger.Date("tail_start", tailStart),
			)
		}
		b.writeBack(ctx, today, tail)
	}

	return MergeUnique(history, tail), nil
}

// loadHistory returns archived closes and the first day the tail must cover.
// The tail restarts on the last archived day so a close stored early is replaced by the final one.
func (b *BTC) loadHistory(ctx context.Context, today time.Time) ([]models.Observation, time.Time) {
	if b.archive == nil {
		return nil, b.historyStart
	}
	symbol := b.klines.Symbol()
	last, ok, err := b.archive.LastDate(ctx, symbol)
	if err != nil {
		b.log.Warn("price archive unavailable, fetching full history", applogger.Error(err))
		return nil, b.historyStart
	}
	if !ok {
		return nil, b.historyStart
	}
	rows, err := b.archive.Range(ctx, symbol, b.historyStart, today)
	if err != nil {
		b.log.Warn("price archive read failed, fetching full history", applogger.Error(err))
		return nil, b.historyStart
	}
	return rows, util.Day(last)
}

// writeBack archives the closed candles of tail. Today's candle is still open and is never stored.
func (b *BTC) writeBack(ctx context.Context, today time.Time, tail []models.Observation) {
	if b.archive == nil {
		return
	}
	closed := make([]models.Observation, 0, len(tail))
	for _, o := range tail {
		if util.Day(o.Date).Before(today) {
			closed = append(closed, o)
		}
	}
	if len(closed) == 0 {
		return
	}
	if err := b.archive.Upsert(ctx, b.klines.Symbol(), closed); err != nil {
		b.log.Warn("price archive write-back failed", applogger.Error(err), applogger.Int("rows", len(closed)))
	}
}

// LiveOverlay replaces today's BTCUSD close with the latest streamed price.
// Wrap it around the cached source.
type LiveOverlay struct {
	next repository.SeriesSource
	live repository.LivePrice
	now  func() time.Time
}

func NewLiveOverlay(next repository.SeriesSource, live repository.LivePrice) *LiveOverlay {
	return &LiveOverlay{next: next, live: live, now: time.Now}
}

func (o *LiveOverlay) Fetch(ctx context.Context, id models.SeriesID) ([]models.Observation, error) {
	obs, err := o.next.Fetch(ctx, id)
	if err != nil || id != models.SeriesBTCUSD || o.live == nil {
		return obs, err
	}
	price, at, ok := o.live.Latest()
	today := util.Day(o.now())
	if !ok || !util.Day(at).Equal(today) || price <= 0 || !(models.Observation{Value: price}).Valid() {
		return obs, nil
	}
	return MergeUnique(obs, []models.Observation{{Date: today, Value: price}}), nil
}

// MergeUnique merges two series keyed by day; b wins on overlapping days. The result is ascending.
func MergeUnique(a, b []models.Observation) []models.Observation {
	byDay := make(map[time.Time]models.Observation, len(a)+len(b))
	for _, o := range a {
		byDay[util.Day(o.Date)] = models.Observation{Date: util.Day(o.Date), Value: o.Value}
	}
	for _, o := range b {
		byDay[util.Day(o.Date)] = models.Observation{Date: util.Day(o.Date), Value: o.Value}
	}
	out := make([]models.Observation, 0, len(byDay))
	for _, o := range byDay {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
