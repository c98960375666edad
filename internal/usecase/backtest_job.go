package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	domrepo "CoinStrat/internal/domain/repository"
	applogger "CoinStrat/pkg/logger"
	"CoinStrat/pkg/queue"
)

// BacktestJobType is the queue message type of backtest requests.
const BacktestJobType = "backtest.request"

// BacktestJob runs backtest requests taken from the Redis queue.
type BacktestJob struct {
	backtest *BacktestUseCase
	metrics  domrepo.Metrics
	log      *applogger.Logger
}

func NewBacktestJob(backtest *BacktestUseCase, metrics domrepo.Metrics, l *applogger.Logger) *BacktestJob {
	if l == nil {
		l = applogger.Nop()
	}
	return &BacktestJob{backtest: backtest, metrics: metrics, log: l}
}

func (j *BacktestJob) Name() string { return "backtest" }
func (j *BacktestJob) Type() string { return BacktestJobType }

func (j *BacktestJob) Handle(ctx context.Context, payload json.RawMessage) error {
	rep, err := runBacktestJob(ctx, j.backtest, payload)
	if err != nil {
		if errors.Is(err, ErrInvalidJob) {
			j.metrics.RecordError("queue_invalid")
			return fmt.Errorf("%w: %v", queue.ErrPermanent, err)
		}
		j.metrics.RecordError("queue_backtest")
		return err
	}
	j.log.Info("backtest job done", applogger.String("id", rep.ID), applogger.Int("strategies", len(rep.Results)))
	return nil
}

var _ queue.Job = (*BacktestJob)(nil)
