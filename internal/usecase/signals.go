package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"CoinStrat/internal/domain/models"
	domrepo "CoinStrat/internal/domain/repository"
	domsvc "CoinStrat/internal/domain/service"
	"CoinStrat/pkg/cache"
	applogger "CoinStrat/pkg/logger"
	"CoinStrat/pkg/util"
)

// ErrInvalidRange is returned when from is after to.
var ErrInvalidRange = errors.New("from must be <= to")

const (
	snapshotKey  = "snapshot:latest"
	snapshotLock = "lock:snapshot"
)

// SignalsOption configures SignalsUseCase.
type SignalsOption func(*SignalsUseCase)

// WithSnapshotCache stores computed snapshots in c for ttl.
func WithSnapshotCache(c cache.Service, ttl time.Duration) SignalsOption {
	return func(uc *SignalsUseCase) {
		uc.cache = c
		uc.ttl = ttl
	}
}

// WithComputeTimeout bounds one full fetch and compute.
func WithComputeTimeout(d time.Duration) SignalsOption {
	return func(uc *SignalsUseCase) {
		if d > 0 {
			uc.timeout = d
		}
	}
}

// WithSignalsClock overrides the wall clock used for "today".
func WithSignalsClock(now func() time.Time) SignalsOption {
	return func(uc *SignalsUseCase) { uc.now = now }
}

// WithRefreshHook registers fn to run after every stored snapshot.
func WithRefreshHook(fn func(ctx context.Context)) SignalsOption {
	return func(uc *SignalsUseCase) { uc.hooks = append(uc.hooks, fn) }
}

// SignalsUseCase fetches every input series, runs the engine and serves the resulting snapshot.
type SignalsUseCase struct {
	source    domrepo.SeriesSource
	engine    domsvc.SignalEngine
	publisher domrepo.SignalPublisher
	metrics   domrepo.Metrics
	log       *applogger.Logger

	cache   cache.Service
	ttl     time.Duration
	timeout time.Duration
	now     func() time.Time
	hooks   []func(ctx context.Context)

	// guards local recomputation when no shared cache is configured
	mu sync.Mutex
}

func NewSignalsUseCase(
	source domrepo.SeriesSource,
	engine domsvc.SignalEngine,
	publisher domrepo.SignalPublisher,
	metrics domrepo.Metrics,
	l *applogger.Logger,
	opts ...SignalsOption,
) *SignalsUseCase {
	if l == nil {
		l = applogger.Nop()
	}
	uc := &SignalsUseCase{
		source:    source,
		engine:    engine,
		publisher: publisher,
		metrics:   metrics,
		log:       l,
		timeout:   2 * time.Minute,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

type fetchResult struct {
	id   models.SeriesID
	obs  []models.Observation
	err  error
	took time.Duration
}

// FetchAll fetches every input concurrently. A failed series becomes empty and is
// reported in the returned error map.
func (uc *SignalsUseCase) FetchAll(ctx context.Context) (models.SeriesSet, map[models.SeriesID]string) {
	ids := models.AllSeries()
	ch := make(chan fetchResult, len(ids))
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id models.SeriesID) {
			defer wg.Done()
			start := time.Now()
			obs, err := uc.source.Fetch(ctx, id)
			ch <- fetchResult{id: id, obs: obs, err: err, took: time.Since(start)}
		}(id)
	}
	wg.Wait()
	close(ch)

	set := make(models.SeriesSet, len(ids))
	errs := map[models.SeriesID]string{}
	for r := range ch {
		uc.metrics.RecordFetch(string(r.id), len(r.obs), r.took.Seconds(), r.err)
		if r.err != nil {
			uc.log.Warn("series fetch failed, using empty series",
				applogger.String("series", string(r.id)),
				applogger.Error(r.err),
			)
			uc.metrics.RecordError("fetch")
			errs[r.id] = r.err.Error()
			set[r.id] = nil
			continue
		}
		set[r.id] = r.obs
	}
	return set, errs
}

// Compute runs one full fetch and compute without touching the snapshot cache.
func (uc *SignalsUseCase) Compute(ctx context.Context) (*models.SignalSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	start := time.Now()
	set, errs := uc.FetchAll(ctx)
	today := util.Day(uc.now())
	records, diag := uc.engine.Compute(set, today)
	uc.metrics.RecordLatency("signals_compute", time.Since(start).Seconds())
	if len(records) == 0 {
		return nil, fmt.Errorf("compute signals: %w", models.ErrNoData)
	}

	points := make(map[models.SeriesID]int, len(set))
	for id, obs := range set {
		points[id] = len(obs)
	}
	snap := &models.SignalSnapshot{
		ComputedAt:   uc.now().UTC(),
		Records:      records,
		Diagnostics:  diag,
		SeriesPoints: points,
	}
	if len(errs) > 0 {
		snap.Errors = errs
	}

	latest, _ := snap.Latest()
	uc.metrics.RecordSignals(latest)
	uc.metrics.RecordCarryForward(diag.CarryForward)
	if err := uc.publisher.PublishRecord(ctx, latest); err != nil {
		uc.metrics.RecordError("publish_signal")
		uc.log.Error("publish latest signal failed", applogger.Error(err))
	}

	uc.log.Info("signal snapshot computed",
		applogger.Int("days", len(records)),
		applogger.Date("latest", latest.Date),
		applogger.Bool("core", latest.CoreOn),
		applogger.Bool("macro", latest.MacroOn),
		applogger.Int("failed_series", len(errs)),
		applogger.Duration("took", time.Since(start)),
	)
	return snap, nil
}

// Snapshot returns the cached snapshot or computes and stores a new one.
// Concurrent callers share a single computation through the cache lock.
func (uc *SignalsUseCase) Snapshot(ctx context.Context) (*models.SignalSnapshot, error) {
	if snap, ok := uc.cached(ctx); ok {
		return snap, nil
	}
	if uc.cache == nil {
		uc.mu.Lock()
		defer uc.mu.Unlock()
		return uc.Compute(ctx)
	}

	locked, err := uc.cache.TryLock(ctx, snapshotLock, uc.timeout)
	if err != nil {
		uc.log.Warn("snapshot lock failed", applogger.Error(err))
	}
	if !locked {
		if snap, ok := uc.waitForSnapshot(ctx); ok {
			return snap, nil
		}
		return uc.Compute(ctx)
	}
	defer func() { _ = uc.cache.Unlock(context.Background(), snapshotLock) }()

	if snap, ok := uc.cached(ctx); ok {
		return snap, nil
	}
	return uc.computeAndStore(ctx)
}

// Refresh recomputes the snapshot regardless of the cache state.
func (uc *SignalsUseCase) Refresh(ctx context.Context) (*models.SignalSnapshot, error) {
	return uc.computeAndStore(ctx)
}

func (uc *SignalsUseCase) computeAndStore(ctx context.Context) (*models.SignalSnapshot, error) {
	snap, err := uc.Compute(ctx)
	if err != nil {
		return nil, err
	}
	if uc.cache != nil {
		if err := uc.cache.Set(ctx, snapshotKey, snap, uc.ttl); err != nil {
			uc.log.Warn("snapshot cache write failed", applogger.Error(err))
		}
	}
	for _, fn := range uc.hooks {
		fn(ctx)
	}
	return snap, nil
}

func (uc *SignalsUseCase) cached(ctx context.Context) (*models.SignalSnapshot, bool) {
	if uc.cache == nil {
		return nil, false
	}
	var snap models.SignalSnapshot
	if err := uc.cache.Get(ctx, snapshotKey, &snap); err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			uc.log.Warn("snapshot cache read failed", applogger.Error(err))
		}
		return nil, false
	}
	return &snap, true
}

func (uc *SignalsUseCase) waitForSnapshot(ctx context.Context) (*models.SignalSnapshot, bool) {
	deadline := time.NewTimer(uc.timeout)
	defer deadline.Stop()
	tick := time.NewTicker(250 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, false
		case <-deadline.C:
			return nil, false
		case <-tick.C:
			if snap, ok := uc.cached(ctx); ok {
				return snap, true
			}
		}
	}
}

// SignalsResult is the range view served by the API and the CLI.
type SignalsResult struct {
	ComputedAt   time.Time                  `json:"computed_at"`
	Count        int                        `json:"count"`
	Records      []models.DailyRecord       `json:"records"`
	Diagnostics  models.Diagnostics         `json:"diagnostics"`
	SeriesPoints map[models.SeriesID]int    `json:"series_points"`
	Errors       map[models.SeriesID]string `json:"errors,omitempty"`
}

// GetSignalsParams selects a date range. Days > 0 keeps only the last Days records.
type GetSignalsParams struct {
	From time.Time
	To   time.Time
	Days int
}

func (uc *SignalsUseCase) GetSignals(ctx context.Context, p GetSignalsParams) (*SignalsResult, error) {
	if !p.From.IsZero() && !p.To.IsZero() && p.From.After(p.To) {
		return nil, ErrInvalidRange
	}
	snap, err := uc.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	recs := snap.Between(p.From, p.To)
	if p.Days > 0 && len(recs) > p.Days {
		recs = recs[len(recs)-p.Days:]
	}
	return &SignalsResult{
		ComputedAt:   snap.ComputedAt,
		Count:        len(recs),
		Records:      recs,
		Diagnostics:  snap.Diagnostics,
		SeriesPoints: snap.SeriesPoints,
		Errors:       snap.Errors,
	}, nil
}

// Latest returns the most recent record of the snapshot.
func (uc *SignalsUseCase) Latest(ctx context.Context) (models.DailyRecord, error) {
	snap, err := uc.Snapshot(ctx)
	if err != nil {
		return models.DailyRecord{}, err
	}
	rec, ok := snap.Latest()
	if !ok {
		return models.DailyRecord{}, models.ErrNoData
	}
	return rec, nil
}
