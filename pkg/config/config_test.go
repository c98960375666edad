package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.Equal(t, "development", c.Environment)
	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, CacheMemory, c.Cache.Backend)
	assert.Equal(t, JobsNone, c.Jobs.Backend)
	assert.Equal(t, 1000, c.Sources.Binance.PageLimit)
	assert.Equal(t, 100*time.Millisecond, c.Sources.Binance.PageDelay)
	assert.Equal(t, []string{"localhost:9092"}, c.Kafka.Brokers)
	assert.Equal(t, 3, c.Engine.WarnLimit)
	assert.Equal(t, []string{"*"}, c.Server.CORSOrigins)
	assert.True(t, c.Metrics.Enabled)
	assert.NoError(t, c.Validate())
}

func TestLoadKeepsExplicitValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
environment: production
server:
  port: 9090
  cors: false
  cors_origins: [https://coinstrat.example]
metrics:
  enabled: false
cache:
  backend: layered
engine:
  refresh_interval: 30m
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "production", c.Environment)
	assert.Equal(t, 9090, c.Server.Port)
	assert.False(t, c.Server.CORS)
	assert.Equal(t, []string{"https://coinstrat.example"}, c.Server.CORSOrigins)
	assert.False(t, c.Metrics.Enabled)
	assert.Equal(t, CacheLayered, c.Cache.Backend)
	assert.Equal(t, 30*time.Minute, c.Engine.RefreshInterval)
	assert.Equal(t, "/metrics", c.Metrics.Path, "unset fields keep defaults")
	assert.True(t, c.UsesRedis())
}

func TestApplyEnv(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	env := map[string]string{
		"FRED_API_KEY":    "secret",
		"KAFKA_BROKERS":   "k1:9092,k2:9092",
		"REDIS_ADDR":      "redis:6379",
		"CLICKHOUSE_HOST": "ch",
		"CACHE_BACKEND":   "REDIS",
		"JOBS_BACKEND":    "kafka",
		"LOG_LEVEL":       "DEBUG",
		"CORS_ORIGINS":    "https://a.example, https://b.example",
	}
	c.applyEnv(func(k string) string { return env[k] })

	assert.Equal(t, "secret", c.Sources.FRED.APIKey)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
	assert.True(t, c.Kafka.Enabled)
	assert.Equal(t, "redis:6379", c.Redis.Addr)
	assert.Equal(t, "ch", c.ClickHouse.Host)
	assert.True(t, c.ClickHouse.Enabled)
	assert.Equal(t, CacheRedis, c.Cache.Backend)
	assert.Equal(t, JobsKafka, c.Jobs.Backend)
	assert.Equal(t, "debug", c.Logging.Level)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.Server.CORSOrigins)
	assert.NoError(t, c.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"bad cache backend", func(c *Config) { c.Cache.Backend = "disk" }},
		{"bad jobs backend", func(c *Config) { c.Jobs.Backend = "sqs" }},
		{"kafka jobs without kafka", func(c *Config) { c.Jobs.Backend = JobsKafka }},
		{"page limit too large", func(c *Config) { c.Sources.Binance.PageLimit = 5000 }},
		{"empty environment", func(c *Config) { c.Environment = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Default()
			require.NoError(t, err)
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}
