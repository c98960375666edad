package repository

import (
	"context"
	"testing"
	"time"

	"CoinStrat/internal/domain/models"
	pkgkafka "CoinStrat/pkg/kafka"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sent struct {
	topic string
	msg   pkgkafka.Message
}

type fakeWriter struct {
	sent   []sent
	closed bool
}

func (f *fakeWriter) Publish(_ context.Context, topic string, msg pkgkafka.Message) error {
	f.sent = append(f.sent, sent{topic: topic, msg: msg})
	return nil
}

func (f *fakeWriter) Close() error { f.closed = true; return nil }

func TestKafkaPublisherKeys(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisher(w, "signals", "results")
	ctx := context.Background()

	rec := models.DailyRecord{Date: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), CoreOn: true}
	require.NoError(t, p.PublishRecord(ctx, rec))
	require.NoError(t, p.PublishReport(ctx, &models.BacktestReport{ID: "job-1"}))
	require.NoError(t, p.PublishReport(ctx, nil))

	require.Len(t, w.sent, 2)
	assert.Equal(t, "signals", w.sent[0].topic)
	assert.Equal(t, "2024-03-05", string(w.sent[0].msg.Key))
	assert.Equal(t, "1", w.sent[0].msg.Headers["core_on"])
	assert.Equal(t, "results", w.sent[1].topic)
	assert.Equal(t, "job-1", string(w.sent[1].msg.Key))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}
