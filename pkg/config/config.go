package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"CoinStrat/pkg/util"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

const (
	CacheMemory  = "memory"
	CacheRedis   = "redis"
	CacheLayered = "layered"

	JobsNone  = "none"
	JobsKafka = "kafka"
	JobsRedis = "redis"
)

type Config struct {
	Environment string           `yaml:"environment" default:"development"`
	Server      ServerConfig     `yaml:"server"`
	Metrics     MetricsConfig    `yaml:"metrics"`
	Logging     LoggingConfig    `yaml:"logging"`
	Sources     SourcesConfig    `yaml:"sources"`
	ClickHouse  ClickHouseConfig `yaml:"clickhouse"`
	Redis       RedisConfig      `yaml:"redis"`
	Cache       CacheConfig      `yaml:"cache"`
	Kafka       KafkaConfig      `yaml:"kafka"`
	Jobs        JobsConfig       `yaml:"jobs"`
	Engine      EngineConfig     `yaml:"engine"`
	Live        LiveConfig       `yaml:"live"`
}

type ServerConfig struct {
	Host             string        `yaml:"host" default:"0.0.0.0"`
	Port             int           `yaml:"port" default:"8080"`
	ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout     time.Duration `yaml:"write_timeout" default:"60s"`
	ShutdownTimeout  time.Duration `yaml:"shutdown_timeout" default:"10s"`
	CORS             bool          `yaml:"cors" default:"true"`
	CORSOrigins      []string      `yaml:"cors_origins" default:"[\"*\"]"`
	RateLimitRPS     float64       `yaml:"rate_limit_rps" default:"10"`
	RateLimitBurst   int           `yaml:"rate_limit_burst" default:"20"`
	ResponseCacheTTL time.Duration `yaml:"response_cache_ttl" default:"60s"`
}

type MetricsConfig struct {
	Enabled       bool          `yaml:"enabled" default:"true"`
	Path          string        `yaml:"path" default:"/metrics"`
	SlowThreshold time.Duration `yaml:"slow_threshold" default:"2s"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" default:"info"`
	Format string `yaml:"format" default:"json"`
	Output string `yaml:"output" default:"stdout"`
}

type SourcesConfig struct {
	Timeout     time.Duration     `yaml:"timeout" default:"30s"`
	FRED        FREDConfig        `yaml:"fred"`
	Binance     BinanceConfig     `yaml:"binance"`
	Blockchain  BlockchainConfig  `yaml:"blockchain"`
	BGeometrics BGeometricsConfig `yaml:"bgeometrics"`
	Breaker     BreakerConfig     `yaml:"breaker"`
	Limiter     LimiterConfig     `yaml:"limiter"`
}

type FREDConfig struct {
	BaseURL string `yaml:"base_url" default:"https://api.stlouisfed.org/fred"`
	APIKey  string `yaml:"api_key"`
}

type BinanceConfig struct {
	BaseURL      string        `yaml:"base_url" default:"https://api.binance.com"`
	Symbol       string        `yaml:"symbol" default:"BTCUSDT"`
	PageLimit    int           `yaml:"page_limit" default:"1000"`
	PageDelay    time.Duration `yaml:"page_delay" default:"100ms"`
	HistoryStart string        `yaml:"history_start" default:"2017-08-17"`
}

type BlockchainConfig struct {
	BaseURL string `yaml:"base_url" default:"https://api.blockchain.info"`
}

type BGeometricsConfig struct {
	BaseURL string `yaml:"base_url" default:"https://charts.bgeometrics.com"`
}

type BreakerConfig struct {
	MaxRequests      uint32        `yaml:"max_requests" default:"1"`
	Interval         time.Duration `yaml:"interval" default:"60s"`
	Timeout          time.Duration `yaml:"timeout" default:"30s"`
	FailureThreshold uint32        `yaml:"failure_threshold" default:"3"`
}

type LimiterConfig struct {
	RPS   float64 `yaml:"rps" default:"5"`
	Burst int     `yaml:"burst" default:"5"`
}

type ClickHouseConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Host         string        `yaml:"host" default:"localhost"`
	Port         int           `yaml:"port" default:"9000"`
	Database     string        `yaml:"database" default:"coinstrat"`
	User         string        `yaml:"user" default:"default"`
	Password     string        `yaml:"password"`
	Table        string        `yaml:"table" default:"btc_daily"`
	UseHTTP      bool          `yaml:"use_http"`
	DialTimeout  time.Duration `yaml:"dial_timeout" default:"5s"`
	ReadTimeout  time.Duration `yaml:"read_timeout" default:"30s"`
	WriteTimeout time.Duration `yaml:"write_timeout" default:"30s"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" default:"localhost:6379"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size" default:"10"`
	Prefix   string `yaml:"prefix" default:"coinstrat"`
}

type CacheConfig struct {
	Backend     string        `yaml:"backend" default:"memory"`
	SeriesTTL   time.Duration `yaml:"series_ttl" default:"1h"`
	SnapshotTTL time.Duration `yaml:"snapshot_ttl" default:"15m"`
	L1TTL       time.Duration `yaml:"l1_ttl" default:"1m"`
	MaxItems    int           `yaml:"max_items" default:"1000"`
}

type KafkaConfig struct {
	Enabled      bool           `yaml:"enabled"`
	Brokers      []string       `yaml:"brokers" default:"[\"localhost:9092\"]"`
	RequiredAcks int            `yaml:"required_acks" default:"-1"`
	Compression  string         `yaml:"compression" default:"snappy"`
	Topics       TopicsConfig   `yaml:"topics"`
	Producer     ProducerConfig `yaml:"producer"`
	Consumer     ConsumerConfig `yaml:"consumer"`
}

type TopicsConfig struct {
	Signals          string `yaml:"signals" default:"coinstrat.signals"`
	BacktestRequests string `yaml:"backtest_requests" default:"coinstrat.backtest.requests"`
	BacktestResults  string `yaml:"backtest_results" default:"coinstrat.backtest.results"`
	DLQ              string `yaml:"dlq" default:"coinstrat.backtest.dlq"`
}

type ProducerConfig struct {
	MaxAttempts  int           `yaml:"max_attempts" default:"5"`
	Linger       time.Duration `yaml:"linger" default:"10ms"`
	BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
	BatchSize    int           `yaml:"batch_size" default:"100"`
	WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
	ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
	Async        bool          `yaml:"async"`
}

type ConsumerConfig struct {
	GroupID    string        `yaml:"group_id" default:"coinstrat-backtest"`
	Workers    int           `yaml:"workers" default:"2"`
	BufferSize int           `yaml:"buffer_size" default:"64"`
	RetryMax   int           `yaml:"retry_max" default:"3"`
	BackoffMin time.Duration `yaml:"backoff_min" default:"200ms"`
	BackoffMax time.Duration `yaml:"backoff_max" default:"5s"`
	MinBytes   int           `yaml:"min_bytes" default:"1"`
	MaxBytes   int           `yaml:"max_bytes" default:"10485760"`
}

type JobsConfig struct {
	Backend string `yaml:"backend" default:"none"`
	Queue   string `yaml:"queue" default:"backtest"`
	Workers int    `yaml:"workers" default:"2"`
}

type EngineConfig struct {
	WarnLimit       int           `yaml:"warn_limit" default:"3"`
	RefreshInterval time.Duration `yaml:"refresh_interval" default:"1h"`
	ComputeTimeout  time.Duration `yaml:"compute_timeout" default:"2m"`
}

type LiveConfig struct {
	Enabled        bool          `yaml:"enabled"`
	URL            string        `yaml:"url" default:"wss://stream.binance.com:9443/ws"`
	Symbol         string        `yaml:"symbol" default:"btcusdt"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay" default:"5s"`
	PingInterval   time.Duration `yaml:"ping_interval" default:"30s"`
	StaleAfter     time.Duration `yaml:"stale_after" default:"5m"`
	MaxTicksPerSec int           `yaml:"max_ticks_per_sec" default:"5"`
}

// Default returns a configuration populated from default tags only.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("set defaults: %w", err)
	}
	return &c, nil
}

// Load reads and parses a YAML configuration file.
// Defaults are applied first so that explicit zero values in the file win.
func Load(path string) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML (or defaults when path is empty)
// and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	var (
		c   *Config
		err error
	)
	if path == "" {
		c, err = Default()
	} else {
		c, err = Load(path)
	}
	if err != nil {
		return nil, err
	}

	c.applyEnv(os.Getenv)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("FRED_API_KEY"); v != "" {
		c.Sources.FRED.APIKey = v
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = util.SplitCSV(v)
		c.Kafka.Enabled = true
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
		c.ClickHouse.Enabled = true
	}
	if v := getenv("CACHE_BACKEND"); v != "" {
		c.Cache.Backend = strings.ToLower(v)
	}
	if v := getenv("JOBS_BACKEND"); v != "" {
		c.Jobs.Backend = strings.ToLower(v)
	}
	if v := getenv("CORS_ORIGINS"); v != "" {
		c.Server.CORSOrigins = util.SplitCSV(v)
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	switch c.Cache.Backend {
	case CacheMemory, CacheRedis, CacheLayered:
	default:
		return fmt.Errorf("cache.backend must be 'memory', 'redis' or 'layered', got '%s'", c.Cache.Backend)
	}
	switch c.Jobs.Backend {
	case JobsNone, JobsRedis:
	case JobsKafka:
		if !c.Kafka.Enabled {
			return fmt.Errorf("jobs.backend 'kafka' requires kafka.enabled")
		}
	default:
		return fmt.Errorf("jobs.backend must be 'none', 'kafka' or 'redis', got '%s'", c.Jobs.Backend)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty")
	}
	if c.Sources.Binance.PageLimit <= 0 || c.Sources.Binance.PageLimit > 1000 {
		return fmt.Errorf("sources.binance.page_limit must be in 1..1000, got %d", c.Sources.Binance.PageLimit)
	}
	if c.Engine.WarnLimit < 0 {
		return fmt.Errorf("engine.warn_limit cannot be negative")
	}
	return nil
}

// UsesRedis reports whether any component needs a redis connection.
func (c *Config) UsesRedis() bool {
	return c.Cache.Backend != CacheMemory || c.Jobs.Backend == JobsRedis
}
