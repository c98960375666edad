package usecase

import (
	"context"
	"fmt"
	"time"

	"CoinStrat/internal/domain/models"
	domrepo "CoinStrat/internal/domain/repository"
	"CoinStrat/pkg/config"
	pkgkafka "CoinStrat/pkg/kafka"
	"CoinStrat/pkg/queue"

	"github.com/google/uuid"
)

// KafkaJobWriter is the producer side used to submit jobs to Kafka.
type KafkaJobWriter interface {
	Publish(ctx context.Context, topic string, msg pkgkafka.Message) error
}

// JobDispatcher routes asynchronous backtest requests to the configured job backend.
type JobDispatcher struct {
	backend string
	kafka   KafkaJobWriter
	topic   string
	queue   queue.Publisher
	metrics domrepo.Metrics
}

// NewJobDispatcher creates a dispatcher. Unused backends may be nil.
func NewJobDispatcher(backend string, kw KafkaJobWriter, topic string, q queue.Publisher, metrics domrepo.Metrics) *JobDispatcher {
	return &JobDispatcher{backend: backend, kafka: kw, topic: topic, queue: q, metrics: metrics}
}

// Enabled reports whether a job backend is configured.
func (d *JobDispatcher) Enabled() bool {
	return d != nil && d.backend != "" && d.backend != config.JobsNone
}

// Submit enqueues req and returns its job ID. The ID is also the key of the published report.
func (d *JobDispatcher) Submit(ctx context.Context, req models.BacktestRequest) (string, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	start := time.Now()
	var err error

	switch d.backend {
	case config.JobsKafka:
		if d.kafka == nil {
			err = fmt.Errorf("kafka producer not configured")
			break
		}
		err = d.kafka.Publish(ctx, d.topic, pkgkafka.Message{Key: []byte(req.ID), Value: req})
	case config.JobsRedis:
		if d.queue == nil {
			err = fmt.Errorf("redis queue not configured")
			break
		}
		_, err = d.queue.Enqueue(ctx, BacktestJobType, req)
	default:
		err = fmt.Errorf("unknown jobs backend: %q", d.backend)
	}

	if err != nil {
		d.metrics.RecordError("submit_job")
		return "", fmt.Errorf("submit backtest job: %w", err)
	}
	d.metrics.RecordLatency("submit_job", time.Since(start).Seconds())
	return req.ID, nil
}
