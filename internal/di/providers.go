package di

import (
	"context"
	"fmt"
	"time"

	"CoinStrat/internal/domain/repository"
	domsvc "CoinStrat/internal/domain/service"
	"CoinStrat/internal/handler/api"
	streammw "CoinStrat/internal/middleware"
	internalrepo "CoinStrat/internal/repository"
	"CoinStrat/internal/service/binance"
	icache "CoinStrat/internal/service/cache"
	"CoinStrat/internal/service/ratelimit"
	"CoinStrat/internal/services/backtest"
	"CoinStrat/internal/services/signals"
	"CoinStrat/internal/services/sources"
	"CoinStrat/internal/usecase"
	"CoinStrat/pkg/cache"
	pkgch "CoinStrat/pkg/clickhouse"
	"CoinStrat/pkg/config"
	xhttp "CoinStrat/pkg/http"
	"CoinStrat/pkg/http/middleware"
	pkgkafka "CoinStrat/pkg/kafka"
	applogger "CoinStrat/pkg/logger"
	"CoinStrat/pkg/metrics"
	"CoinStrat/pkg/queue"
	"CoinStrat/pkg/server"
	"CoinStrat/pkg/util"

	"github.com/segmentio/kafka-go"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideRedisCache connects to redis when any component uses it; otherwise it returns nil.
func ProvideRedisCache(cfg *config.Config) (*cache.RedisCache, func(), error) {
	if !cfg.UsesRedis() {
		return nil, func() {}, nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Redis.Addr),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPool(cfg.Redis.PoolSize, 2, 30*time.Second),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis: %w", err)
	}
	return rc, func() { _ = rc.Close() }, nil
}

// ProvideCache selects the series and snapshot cache backend.
func ProvideCache(cfg *config.Config, rc *cache.RedisCache) (cache.Service, func(), error) {
	switch cfg.Cache.Backend {
	case config.CacheRedis:
		return rc, func() {}, nil
	case config.CacheLayered:
		lc := cache.NewLayeredCache(rc, cfg.Cache.L1TTL, cache.WithMemoryMaxSize(cfg.Cache.MaxItems))
		return lc, func() { _ = lc.Close() }, nil
	case config.CacheMemory, "":
		mc := cache.NewMemoryCache(cache.WithMemoryMaxSize(cfg.Cache.MaxItems))
		return mc, func() { _ = mc.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
}

// ProvideResponseCache shares rendered responses through redis when redis backs the cache.
func ProvideResponseCache(cfg *config.Config, rc *cache.RedisCache) icache.BytesCache {
	if rc != nil && cfg.Cache.Backend != config.CacheMemory {
		return icache.NewRedisCache(rc.Client(), cfg.Redis.Prefix+":resp")
	}
	return icache.NewTTLCache()
}

// ProvideClickHouseClient creates a ClickHouse client, or nil when the archive is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, func(), error) {
	if !cfg.ClickHouse.Enabled {
		return nil, func() {}, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, func() { _ = client.Close() }, nil
}

// ProvidePriceArchive creates the BTC close archive and its schema.
func ProvidePriceArchive(cfg *config.Config, ch *pkgch.Client, l *applogger.Logger) (repository.PriceArchive, error) {
	if ch == nil {
		return nil, nil
	}
	archive, err := internalrepo.NewCHPriceArchive(ch, cfg.ClickHouse.Database, cfg.ClickHouse.Table, l)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := archive.Init(ctx); err != nil {
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return archive, nil
}

// ProvideBTC creates the archive-backed BTC close source.
func ProvideBTC(cfg *config.Config, klines *sources.Binance, archive repository.PriceArchive, l *applogger.Logger) (*sources.BTC, error) {
	start, ok := util.ParseDay(cfg.Sources.Binance.HistoryStart)
	if !ok {
		return nil, fmt.Errorf("invalid sources.binance.history_start %q", cfg.Sources.Binance.HistoryStart)
	}
	var opts []sources.BTCOption
	if archive != nil {
		opts = append(opts, sources.WithArchive(archive))
	}
	return sources.NewBTC(klines, start, l, opts...), nil
}

// ProvideLiveCollector creates the live price collector, or nil when streaming is disabled.
func ProvideLiveCollector(cfg *config.Config, m repository.Metrics, l *applogger.Logger) *usecase.LivePriceCollector {
	if !cfg.Live.Enabled {
		return nil
	}
	stream := binance.New(cfg.Live.URL, cfg.Live.Symbol, cfg.Live.ReconnectDelay, cfg.Live.PingInterval, l)
	filtered := streammw.NewTickPipeline(stream, m, streammw.WithMaxRPS(cfg.Live.MaxTicksPerSec))
	return usecase.NewLivePriceCollector(filtered, m, cfg.Live.StaleAfter, l)
}

// ProvideSeriesSource stacks the cache and the live overlay on top of the provider router.
func ProvideSeriesSource(cfg *config.Config, router *sources.Router, c cache.Service, live *usecase.LivePriceCollector, l *applogger.Logger) repository.SeriesSource {
	var src repository.SeriesSource = sources.NewCached(router, c, cfg.Cache.SeriesTTL, l)
	if live != nil {
		src = sources.NewLiveOverlay(src, live)
	}
	return src
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, func() { _ = producer.Close() }, nil
}

// ProvideSignalPublisher publishes to Kafka when a producer exists.
// The producer is closed by its own cleanup, not by the publisher.
func ProvideSignalPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.SignalPublisher {
	if producer == nil {
		return internalrepo.NopPublisher{}
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topics.Signals, cfg.Kafka.Topics.BacktestResults)
}

// ProvideSignalEngine creates the signal engine.
func ProvideSignalEngine(cfg *config.Config, l *applogger.Logger) domsvc.SignalEngine {
	return signals.NewEngine(l, signals.WithWarnLimit(cfg.Engine.WarnLimit))
}

// ProvideBacktester creates the backtest simulator.
func ProvideBacktester(l *applogger.Logger) domsvc.Backtester {
	return backtest.NewSimulator(l)
}

// ProvideSignalsUseCase creates the signals use case; stored snapshots purge the response cache.
func ProvideSignalsUseCase(
	cfg *config.Config,
	src repository.SeriesSource,
	engine domsvc.SignalEngine,
	pub repository.SignalPublisher,
	m repository.Metrics,
	c cache.Service,
	resp icache.BytesCache,
	l *applogger.Logger,
) *usecase.SignalsUseCase {
	return usecase.NewSignalsUseCase(src, engine, pub, m, l,
		usecase.WithSnapshotCache(c, cfg.Cache.SnapshotTTL),
		usecase.WithComputeTimeout(cfg.Engine.ComputeTimeout),
		usecase.WithRefreshHook(func(ctx context.Context) {
			if err := resp.Purge(ctx); err != nil {
				l.Warn("response cache purge failed", applogger.Error(err))
			}
		}),
	)
}

// ProvideBacktestUseCase creates the backtest use case.
func ProvideBacktestUseCase(sig *usecase.SignalsUseCase, sim domsvc.Backtester, pub repository.SignalPublisher, m repository.Metrics, l *applogger.Logger) *usecase.BacktestUseCase {
	return usecase.NewBacktestUseCase(sig, sim, pub, m, l)
}

// ProvideRedisQueue creates the backtest job queue, or nil unless jobs.backend is redis.
func ProvideRedisQueue(cfg *config.Config, rc *cache.RedisCache, l *applogger.Logger) *queue.RedisQueue {
	if cfg.Jobs.Backend != config.JobsRedis || rc == nil {
		return nil
	}
	return queue.NewRedisQueue(l, queue.QueueConfig{
		Workers:    cfg.Jobs.Workers,
		RetryLimit: 3,
		RetryDelay: 10 * time.Second,
		PollWait:   time.Second,
	}, rc.Client(), queue.WithKeyPrefix(cfg.Redis.Prefix+":queue:"+cfg.Jobs.Queue))
}

// ProvideJobDispatcher routes async backtest submissions to the configured backend.
func ProvideJobDispatcher(cfg *config.Config, producer *pkgkafka.Producer, q *queue.RedisQueue, m repository.Metrics) *usecase.JobDispatcher {
	var kw usecase.KafkaJobWriter
	if producer != nil {
		kw = producer
	}
	var qp queue.Publisher
	if q != nil {
		qp = q
	}
	return usecase.NewJobDispatcher(cfg.Jobs.Backend, kw, cfg.Kafka.Topics.BacktestRequests, qp, m)
}

// ProvideKafkaConsumer creates the backtest request consumer, or nil unless jobs.backend is kafka.
func ProvideKafkaConsumer(cfg *config.Config, m repository.Metrics, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if cfg.Jobs.Backend != config.JobsKafka {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Topics.DLQ),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
		pkgkafka.WithConsumerLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.SetHook(pkgkafka.HookFuncs{
		After: func(_ context.Context, _ kafka.Message, err error) {
			if err != nil {
				m.RecordError("kafka_handle")
			}
		},
	})
	return consumer, nil
}

// ProvideKafkaBacktestHandler handles the backtest requests topic.
func ProvideKafkaBacktestHandler(cfg *config.Config, bt *usecase.BacktestUseCase, m repository.Metrics, l *applogger.Logger) *usecase.KafkaBacktestHandler {
	return usecase.NewKafkaBacktestHandler(cfg.Kafka.Topics.BacktestRequests, bt, m, l)
}

// ProvideAPILimiter creates the per-client API limiter.
func ProvideAPILimiter(cfg *config.Config) middleware.KeyedLimiter {
	return ratelimit.New(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)
}

// ProvideSignalsHandler creates the /api handler.
func ProvideSignalsHandler(
	cfg *config.Config,
	l *applogger.Logger,
	sig *usecase.SignalsUseCase,
	bt *usecase.BacktestUseCase,
	series *usecase.SeriesUseCase,
	jobs *usecase.JobDispatcher,
	resp icache.BytesCache,
	lim middleware.KeyedLimiter,
) *api.SignalsEchoHandler {
	return api.NewSignalsEchoHandler(l, sig, bt, series,
		api.WithResponseCache(resp, cfg.Server.ResponseCacheTTL),
		api.WithRateLimiter(lim),
		api.WithJobs(jobs),
	)
}

// ProvideHTTPServer creates the Echo server.
func ProvideHTTPServer(cfg *config.Config, l *applogger.Logger, h *api.SignalsEchoHandler) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
	}
	if cfg.Server.CORS {
		opts = append(opts, xhttp.WithCORS(cfg.Server.CORSOrigins...))
	} else {
		opts = append(opts, xhttp.WithCORS())
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetrics(cfg.Metrics.Path, cfg.Metrics.SlowThreshold))
	} else {
		opts = append(opts, xhttp.WithMetrics("", 0))
	}
	return xhttp.NewServer(l, []xhttp.Handler{h}, opts...)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	httpServer *xhttp.Server,
	sig *usecase.SignalsUseCase,
	live *usecase.LivePriceCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaBacktestHandler,
	q *queue.RedisQueue,
	bt *usecase.BacktestUseCase,
	m repository.Metrics,
) *server.App {
	var opts []server.AppOption
	if live != nil {
		opts = append(opts, server.WithCollector(live))
	}
	if consumer != nil {
		opts = append(opts, server.WithKafkaJobs(consumer, kh))
	}
	if q != nil {
		opts = append(opts, server.WithQueueJobs(q, usecase.NewBacktestJob(bt, m, l)))
	}
	return server.New(cfg, l, httpServer, sig, opts...)
}

// Runtime is what the one-shot CLI commands need.
type Runtime struct {
	Logger   *applogger.Logger
	Signals  *usecase.SignalsUseCase
	Backtest *usecase.BacktestUseCase
}

// ProvideCLIMetrics keeps one-shot commands off the process-wide registry.
func ProvideCLIMetrics() repository.Metrics {
	return metrics.Nop{}
}

// ProvideCLIPublisher keeps one-shot commands from publishing.
func ProvideCLIPublisher() repository.SignalPublisher {
	return internalrepo.NopPublisher{}
}

// ProvideNoLiveCollector disables the live overlay for one-shot commands.
func ProvideNoLiveCollector() *usecase.LivePriceCollector {
	return nil
}

func ProvideRuntime(l *applogger.Logger, sig *usecase.SignalsUseCase, bt *usecase.BacktestUseCase) *Runtime {
	return &Runtime{Logger: l, Signals: sig, Backtest: bt}
}
