package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"CoinStrat/internal/domain/models"
	"CoinStrat/pkg/config"
	xhttp "CoinStrat/pkg/http"
	pkgkafka "CoinStrat/pkg/kafka"
	applogger "CoinStrat/pkg/logger"
	"CoinStrat/pkg/queue"
)

// Refresher recomputes the signal snapshot.
type Refresher interface {
	Refresh(ctx context.Context) (*models.SignalSnapshot, error)
}

// Collector is a long-running stream reader.
type Collector interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	httpServer *xhttp.Server
	signals    Refresher

	collector Collector
	consumer  *pkgkafka.Consumer
	kh        pkgkafka.MessageHandler
	queue     *queue.RedisQueue
	job       queue.Job
}

// AppOption attaches an optional component.
type AppOption func(*App)

// WithCollector runs the live price collector.
func WithCollector(c Collector) AppOption {
	return func(a *App) { a.collector = c }
}

// WithKafkaJobs consumes backtest requests from Kafka.
func WithKafkaJobs(consumer *pkgkafka.Consumer, kh pkgkafka.MessageHandler) AppOption {
	return func(a *App) {
		a.consumer = consumer
		a.kh = kh
	}
}

// WithQueueJobs consumes backtest requests from the Redis queue.
func WithQueueJobs(q *queue.RedisQueue, job queue.Job) AppOption {
	return func(a *App) {
		a.queue = q
		a.job = job
	}
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, l *applogger.Logger, httpServer *xhttp.Server, signals Refresher, opts ...AppOption) *App {
	if l == nil {
		l = applogger.Nop()
	}
	a := &App{cfg: cfg, l: l, httpServer: httpServer, signals: signals}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.start(ctx); err != nil {
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.l.Info("shutdown signal received")
	cancel()
	return a.shutdown()
}

func (a *App) start(ctx context.Context) error {
	if a.collector != nil {
		if err := a.collector.Start(ctx); err != nil {
			// prices fall back to the daily klines
			a.l.Error("live collector start error", applogger.Error(err))
		} else {
			a.l.Info("live collector started", applogger.String("symbol", a.cfg.Live.Symbol))
		}
	}

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		if err := a.consumer.Start(); err != nil {
			a.l.Error("kafka consumer error", applogger.Error(err))
			return err
		}
		a.l.Info("kafka consumer started",
			applogger.String("topic", a.kh.Topic()),
			applogger.Strings("brokers", a.cfg.Kafka.Brokers),
		)
	}

	if a.queue != nil {
		if a.job != nil {
			a.queue.RegisterJob(a.job)
		}
		if err := a.queue.Start(); err != nil {
			a.l.Error("redis queue error", applogger.Error(err))
			return err
		}
		a.l.Info("redis queue started", applogger.String("queue", a.cfg.Jobs.Queue))
	}

	if a.signals != nil {
		go a.refreshLoop(ctx, a.cfg.Engine.RefreshInterval)
	}

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}
	return nil
}

// refreshLoop warms the snapshot at startup and then recomputes it every interval.
func (a *App) refreshLoop(ctx context.Context, interval time.Duration) {
	a.refresh(ctx)
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.refresh(ctx)
		}
	}
}

func (a *App) refresh(ctx context.Context) {
	snap, err := a.signals.Refresh(ctx)
	if err != nil {
		if ctx.Err() == nil {
			a.l.Error("signal refresh failed", applogger.Error(err))
		}
		return
	}
	a.l.Info("signal snapshot refreshed", applogger.Int("days", len(snap.Records)))
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	a.l.Info("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(ctx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}

	if a.collector != nil {
		if err := a.collector.Shutdown(ctx); err != nil {
			a.l.Warn("collector stop error", applogger.Error(err))
		}
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.queue != nil {
		if err := a.queue.Stop(ctx); err != nil {
			a.l.Warn("redis queue stop error", applogger.Error(err))
		}
	}

	a.l.Info("shutdown complete")
	return nil
}
