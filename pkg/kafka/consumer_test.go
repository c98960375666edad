package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingHandler struct {
	topic string
	fails int
	err   error
	calls int
	seen  string
}

func (h *countingHandler) Topic() string { return h.topic }

func (h *countingHandler) Handle(ctx context.Context, _ []byte) error {
	h.calls++
	h.seen = Header(ctx, "job_id")
	if h.calls <= h.fails {
		return h.err
	}
	return nil
}

func newTestConsumer(t *testing.T) *Consumer {
	t.Helper()
	c, err := NewConsumer(
		WithConsumerBrokers([]string{"localhost:9092"}),
		WithConsumerRetry(2, time.Millisecond, time.Millisecond),
	)
	require.NoError(t, err)
	return c
}

func TestHandleWithRetryRecovers(t *testing.T) {
	c := newTestConsumer(t)
	h := &countingHandler{topic: "t", fails: 2, err: errors.New("transient")}

	attempts, err := c.handleWithRetry(h, kafka.Message{Topic: "t", Headers: []kafka.Header{{Key: "job_id", Value: []byte("j1")}}})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, "j1", h.seen)
}

func TestHandleWithRetryStopsOnPermanent(t *testing.T) {
	c := newTestConsumer(t)
	h := &countingHandler{topic: "t", fails: 10, err: ErrPermanent}

	attempts, err := c.handleWithRetry(h, kafka.Message{Topic: "t"})
	assert.ErrorIs(t, err, ErrPermanent)
	assert.Equal(t, 1, attempts)
}

func TestHookErrorCountsAsAttempt(t *testing.T) {
	c := newTestConsumer(t)
	c.SetHook(HookFuncs{Before: func(ctx context.Context, _ kafka.Message) (context.Context, error) {
		return ctx, errors.New("rejected")
	}})
	h := &countingHandler{topic: "t"}

	attempts, err := c.handleWithRetry(h, kafka.Message{Topic: "t"})
	assert.Error(t, err)
	assert.Equal(t, 3, attempts)
	assert.Zero(t, h.calls)
}

func TestBackoffWithJitterBounds(t *testing.T) {
	for attempt := 1; attempt < 10; attempt++ {
		d := backoffWithJitter(10*time.Millisecond, 80*time.Millisecond, attempt)
		assert.Greater(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, 80*time.Millisecond)
	}
}

func TestEncode(t *testing.T) {
	b, err := Encode(map[string]int{"a": 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(b))

	b, _ = Encode("raw")
	assert.Equal(t, "raw", string(b))
}
