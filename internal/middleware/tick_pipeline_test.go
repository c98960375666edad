package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"CoinStrat/internal/domain/models"
	"CoinStrat/pkg/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chanStream struct {
	ticks chan *models.PriceTick
	errs  chan error
}

func newChanStream() *chanStream {
	return &chanStream{ticks: make(chan *models.PriceTick, 16), errs: make(chan error, 1)}
}

func (s *chanStream) Connect(context.Context) error   { return nil }
func (s *chanStream) Subscribe(context.Context) error { return nil }
func (s *chanStream) Reconnect(context.Context) error { return nil }
func (s *chanStream) Close() error                    { return nil }
func (s *chanStream) IsConnected() bool               { return true }
func (s *chanStream) Read(context.Context) (<-chan *models.PriceTick, <-chan error) {
	return s.ticks, s.errs
}

type countingMetrics struct {
	metrics.Nop
	errs map[string]int
}

func (m *countingMetrics) RecordError(kind string) { m.errs[kind]++ }

func TestTickPipelineAccept(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		tick *models.PriceTick
		want bool
	}{
		{"nil", nil, false},
		{"no symbol", &models.PriceTick{Price: 1, Time: now}, false},
		{"zero time", &models.PriceTick{Symbol: "BTCUSDT", Price: 1}, false},
		{"future", &models.PriceTick{Symbol: "BTCUSDT", Price: 1, Time: now.Add(time.Hour)}, false},
		{"zero price", &models.PriceTick{Symbol: "BTCUSDT", Time: now}, false},
		{"valid", &models.PriceTick{Symbol: "BTCUSDT", Price: 65000, Time: now}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &countingMetrics{errs: map[string]int{}}
			p := NewTickPipeline(newChanStream(), m, WithPipelineClock(func() time.Time { return now }))
			assert.Equal(t, tt.want, p.Accept(tt.tick))
			if !tt.want {
				assert.Equal(t, 1, m.errs["pipeline_validate"])
			}
		})
	}
}

func TestTickPipelineThrottle(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := now
	m := &countingMetrics{errs: map[string]int{}}
	p := NewTickPipeline(newChanStream(), m,
		WithMaxRPS(2),
		WithPipelineClock(func() time.Time { return clock }),
	)
	tick := func(closed bool) *models.PriceTick {
		return &models.PriceTick{Symbol: "BTCUSDT", Price: 65000, Time: now, Closed: closed}
	}

	assert.True(t, p.Accept(tick(false)))
	clock = clock.Add(100 * time.Millisecond)
	assert.False(t, p.Accept(tick(false)))
	assert.True(t, p.Accept(tick(true)), "closed candles bypass the throttle")
	clock = clock.Add(600 * time.Millisecond)
	assert.True(t, p.Accept(tick(false)))
	assert.Equal(t, 1, m.errs["pipeline_throttle"])

	// other symbols have their own budget
	other := &models.PriceTick{Symbol: "ETHUSDT", Price: 3000, Time: now}
	assert.True(t, p.Accept(other))
}

func TestTickPipelineRead(t *testing.T) {
	now := time.Now().UTC()
	src := newChanStream()
	p := NewTickPipeline(src, metrics.Nop{}, WithMaxRPS(0))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out, errCh := p.Read(ctx)

	src.ticks <- &models.PriceTick{Symbol: "BTCUSDT", Price: -1, Time: now}
	src.ticks <- &models.PriceTick{Symbol: "BTCUSDT", Price: 65000, Time: now}
	src.errs <- errors.New("read timeout")
	close(src.ticks)

	var got []*models.PriceTick
	for tk := range out {
		got = append(got, tk)
	}
	require.Len(t, got, 1)
	assert.Equal(t, 65000.0, got[0].Price)
	assert.EqualError(t, <-errCh, "read timeout")
}
