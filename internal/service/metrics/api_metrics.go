package metrics

import (
    "sync"

    "github.com/prometheus/client_golang/prometheus"
)

var (
    once sync.Once

    APILatency = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{
            Namespace: "coinstrat",
            Subsystem: "api",
            Name:      "latency_seconds",
            Help:      "Latency of signal API endpoints",
            Buckets:   prometheus.DefBuckets,
        },
        []string{"endpoint"},
    )

    APIErrors = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "coinstrat",
            Subsystem: "api",
            Name:      "errors_total",
            Help:      "Errors by signal API endpoint",
        },
        []string{"endpoint"},
    )

    ResponseCacheHits = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "coinstrat",
            Subsystem: "api",
            Name:      "response_cache_total",
            Help:      "Response cache lookups by endpoint and result",
        },
        []string{"endpoint", "result"},
    )
)

// Register adds the API vectors to the default registry once.
func Register() {
    once.Do(func() {
        prometheus.MustRegister(APILatency, APIErrors, ResponseCacheHits)
    })
}
