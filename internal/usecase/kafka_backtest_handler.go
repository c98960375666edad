package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"CoinStrat/internal/domain/models"
	domrepo "CoinStrat/internal/domain/repository"
	xhttp "CoinStrat/pkg/http"
	pkgkafka "CoinStrat/pkg/kafka"
	applogger "CoinStrat/pkg/logger"
)

// ErrInvalidJob marks a backtest job whose payload can never succeed.
var ErrInvalidJob = errors.New("invalid backtest job")

// decodeBacktestRequest parses a job payload and applies the request defaults and rules.
func decodeBacktestRequest(b []byte) (models.BacktestRequest, error) {
	var req models.BacktestRequest
	if err := json.Unmarshal(b, &req); err != nil {
		return req, fmt.Errorf("%w: %v", ErrInvalidJob, err)
	}
	if err := xhttp.ApplyDefaultsAndValidate(&req); err != nil {
		return req, fmt.Errorf("%w: %v", ErrInvalidJob, err)
	}
	return req, nil
}

// runBacktestJob runs one decoded job and publishes its report.
// Only an empty window is invalid; snapshot failures stay retryable.
func runBacktestJob(ctx context.Context, uc *BacktestUseCase, payload []byte) (*models.BacktestReport, error) {
	req, err := decodeBacktestRequest(payload)
	if err != nil {
		return nil, err
	}
	rep, err := uc.RunAndPublish(ctx, req)
	if errors.Is(err, ErrEmptyWindow) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJob, err)
	}
	return rep, err
}

// KafkaBacktestHandler consumes backtest requests and publishes the reports.
type KafkaBacktestHandler struct {
	topic    string
	backtest *BacktestUseCase
	metrics  domrepo.Metrics
	log      *applogger.Logger
}

func NewKafkaBacktestHandler(topic string, backtest *BacktestUseCase, metrics domrepo.Metrics, l *applogger.Logger) *KafkaBacktestHandler {
	if l == nil {
		l = applogger.Nop()
	}
	return &KafkaBacktestHandler{topic: topic, backtest: backtest, metrics: metrics, log: l}
}

func (h *KafkaBacktestHandler) Topic() string { return h.topic }

// incoming message schema: BacktestRequest JSON with an optional id
func (h *KafkaBacktestHandler) Handle(ctx context.Context, b []byte) error {
	rep, err := runBacktestJob(ctx, h.backtest, b)
	if err != nil {
		if errors.Is(err, ErrInvalidJob) {
			h.metrics.RecordError("consumer_invalid")
			return fmt.Errorf("%w: %v", pkgkafka.ErrPermanent, err)
		}
		h.metrics.RecordError("consumer_backtest")
		return err
	}
	fields := []applogger.Field{
		applogger.String("id", rep.ID),
		applogger.Int("strategies", len(rep.Results)),
	}
	if t, ok := pkgkafka.StartTime(ctx); ok {
		fields = append(fields, applogger.Duration("took", time.Since(t)))
	}
	h.log.Info("backtest job done", fields...)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaBacktestHandler)(nil)
