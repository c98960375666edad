package repository

import (
	"context"

	"CoinStrat/internal/domain/models"
	"CoinStrat/internal/domain/repository"
	pkgkafka "CoinStrat/pkg/kafka"
	"CoinStrat/pkg/util"
)

// kafkaWriter is the part of pkgkafka.Producer the publisher needs.
type kafkaWriter interface {
	Publish(ctx context.Context, topic string, msg pkgkafka.Message) error
	Close() error
}

// KafkaPublisher implements SignalPublisher for Kafka.
type KafkaPublisher struct {
	producer     kafkaWriter
	signalsTopic string
	resultsTopic string
}

// NewKafkaPublisher creates Kafka publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, signalsTopic, resultsTopic string) repository.SignalPublisher {
	return newKafkaPublisher(producer, signalsTopic, resultsTopic)
}

func newKafkaPublisher(w kafkaWriter, signalsTopic, resultsTopic string) *KafkaPublisher {
	return &KafkaPublisher{producer: w, signalsTopic: signalsTopic, resultsTopic: resultsTopic}
}

// PublishRecord publishes one day of the signal table keyed by its date.
func (p *KafkaPublisher) PublishRecord(ctx context.Context, rec models.DailyRecord) error {
	return p.producer.Publish(ctx, p.signalsTopic, pkgkafka.Message{
		Key:   []byte(util.DayKey(rec.Date)),
		Value: rec,
		Headers: map[string]string{
			"core_on": boolHeader(rec.CoreOn),
		},
	})
}

// PublishReport publishes a backtest report keyed by its ID.
func (p *KafkaPublisher) PublishReport(ctx context.Context, report *models.BacktestReport) error {
	if report == nil {
		return nil
	}
	return p.producer.Publish(ctx, p.resultsTopic, pkgkafka.Message{
		Key:   []byte(report.ID),
		Value: report,
	})
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

func boolHeader(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// NopPublisher drops everything. Used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishRecord(context.Context, models.DailyRecord) error     { return nil }
func (NopPublisher) PublishReport(context.Context, *models.BacktestReport) error { return nil }
func (NopPublisher) Close() error                                                { return nil }

var (
	_ repository.SignalPublisher = (*KafkaPublisher)(nil)
	_ repository.SignalPublisher = NopPublisher{}
)
