package server

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"CoinStrat/internal/domain/models"
	"CoinStrat/pkg/config"
	xhttp "CoinStrat/pkg/http"
	applogger "CoinStrat/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRefresher struct {
	calls atomic.Int32
	err   error
}

func (f *fakeRefresher) Refresh(ctx context.Context) (*models.SignalSnapshot, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &models.SignalSnapshot{}, nil
}

type fakeCollector struct {
	mu       sync.Mutex
	started  bool
	stopped  bool
	startErr error
}

func (c *fakeCollector) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started = true
	return c.startErr
}

func (c *fakeCollector) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	return nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Server.ShutdownTimeout = time.Second
	return cfg
}

func TestRefreshLoopRefreshesImmediatelyAndOnTick(t *testing.T) {
	r := &fakeRefresher{}
	a := New(testConfig(t), applogger.Nop(), nil, r)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.refreshLoop(ctx, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return r.calls.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("refresh loop did not stop on cancel")
	}
}

func TestRefreshLoopWithoutIntervalRunsOnce(t *testing.T) {
	r := &fakeRefresher{err: errors.New("upstream down")}
	a := New(testConfig(t), applogger.Nop(), nil, r)

	a.refreshLoop(context.Background(), 0)
	assert.Equal(t, int32(1), r.calls.Load())
}

func TestStartAndShutdown(t *testing.T) {
	cfg := testConfig(t)
	cfg.Engine.RefreshInterval = time.Hour
	srv := xhttp.NewServer(applogger.Nop(), nil,
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(time.Second, time.Second, time.Second),
		xhttp.WithMetrics("", 0),
	)
	r := &fakeRefresher{}
	// a failing collector must not stop the app
	col := &fakeCollector{startErr: errors.New("dial refused")}
	a := New(cfg, applogger.Nop(), srv, r, WithCollector(col))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, a.start(ctx))
	assert.Eventually(t, func() bool { return r.calls.Load() == 1 }, time.Second, time.Millisecond)

	cancel()
	require.NoError(t, a.shutdown())

	col.mu.Lock()
	defer col.mu.Unlock()
	assert.True(t, col.started)
	assert.True(t, col.stopped)
}
