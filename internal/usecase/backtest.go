package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"CoinStrat/internal/domain/models"
	domrepo "CoinStrat/internal/domain/repository"
	domsvc "CoinStrat/internal/domain/service"
	applogger "CoinStrat/pkg/logger"

	"github.com/google/uuid"
)

// ErrEmptyWindow is returned when the signal table has no records on or after start_date.
// It is a models.ErrNoData, but one that retrying cannot fix.
var ErrEmptyWindow = fmt.Errorf("no records in backtest window: %w", models.ErrNoData)

// SnapshotProvider yields the current signal table.
type SnapshotProvider interface {
	Snapshot(ctx context.Context) (*models.SignalSnapshot, error)
}

// BacktestUseCase replays the signal table against the DCA strategies.
type BacktestUseCase struct {
	signals   SnapshotProvider
	sim       domsvc.Backtester
	publisher domrepo.SignalPublisher
	metrics   domrepo.Metrics
	log       *applogger.Logger
	now       func() time.Time
}

func NewBacktestUseCase(signals SnapshotProvider, sim domsvc.Backtester, publisher domrepo.SignalPublisher, metrics domrepo.Metrics, l *applogger.Logger) *BacktestUseCase {
	if l == nil {
		l = applogger.Nop()
	}
	return &BacktestUseCase{signals: signals, sim: sim, publisher: publisher, metrics: metrics, log: l, now: time.Now}
}

// Run expects req to have been through defaults and validation.
func (uc *BacktestUseCase) Run(ctx context.Context, req models.BacktestRequest) (*models.BacktestReport, error) {
	cfg, err := req.ToConfig()
	if err != nil {
		return nil, err
	}
	snap, err := uc.signals.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return uc.run(req.ID, snap.Records, cfg)
}

func (uc *BacktestUseCase) run(id string, records []models.DailyRecord, cfg models.BacktestConfig) (*models.BacktestReport, error) {
	start := time.Now()
	results := uc.sim.Run(records, cfg)
	uc.metrics.RecordLatency("backtest", time.Since(start).Seconds())
	if len(results) == 0 {
		return nil, fmt.Errorf("backtest from %s: %w", cfg.StartDate.Format("2006-01-02"), ErrEmptyWindow)
	}
	for _, r := range results {
		uc.metrics.RecordBacktest(r.Name, r.TotalReturn, r.MaxDrawdown)
	}
	if id == "" {
		id = uuid.NewString()
	}
	return &models.BacktestReport{
		ID:          id,
		Config:      cfg,
		Results:     results,
		GeneratedAt: uc.now().UTC(),
	}, nil
}

// Compare runs several configurations concurrently over one snapshot.
// The reports keep the order of cfgs; a config without data yields a nil report.
func (uc *BacktestUseCase) Compare(ctx context.Context, cfgs []models.BacktestConfig) ([]*models.BacktestReport, error) {
	snap, err := uc.signals.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	reports := make([]*models.BacktestReport, len(cfgs))
	var wg sync.WaitGroup
	for i, cfg := range cfgs {
		wg.Add(1)
		go func(i int, cfg models.BacktestConfig) {
			defer wg.Done()
			rep, err := uc.run("", snap.Records, cfg)
			if err != nil {
				uc.log.Warn("compare run skipped", applogger.Int("index", i), applogger.Error(err))
				return
			}
			reports[i] = rep
		}(i, cfg)
	}
	wg.Wait()
	return reports, nil
}

// RunAndPublish runs req and publishes the report to the results channel.
func (uc *BacktestUseCase) RunAndPublish(ctx context.Context, req models.BacktestRequest) (*models.BacktestReport, error) {
	rep, err := uc.Run(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := uc.publisher.PublishReport(ctx, rep); err != nil {
		uc.metrics.RecordError("publish_report")
		return rep, fmt.Errorf("publish report %s: %w", rep.ID, err)
	}
	return rep, nil
}
