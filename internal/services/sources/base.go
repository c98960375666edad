package sources

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"CoinStrat/internal/service/ratelimit"
	"CoinStrat/pkg/config"
	xhttp "CoinStrat/pkg/http"
	applogger "CoinStrat/pkg/logger"

	"github.com/sony/gobreaker"
)

const userAgent = "coinstrat/1.0"

// ErrBreakerOpen is returned while a provider's circuit breaker rejects calls.
var ErrBreakerOpen = errors.New("provider circuit open")

// httpSource is the shared plumbing of every provider: limiter wait, breaker, JSON GET.
type httpSource struct {
	name    string
	baseURL string
	client  *xhttp.Client
	breaker *gobreaker.CircuitBreaker
	limiter *ratelimit.Limiter
	log     *applogger.Logger
}

func newHTTPSource(name, baseURL string, client *xhttp.Client, limiter *ratelimit.Limiter, bc config.BreakerConfig, l *applogger.Logger) *httpSource {
	if l == nil {
		l = applogger.Nop()
	}
	return &httpSource{
		name:    name,
		baseURL: baseURL,
		client:  client,
		breaker: newBreaker(name, bc, l),
		limiter: limiter,
		log:     l,
	}
}

func newBreaker(name string, bc config.BreakerConfig, l *applogger.Logger) *gobreaker.CircuitBreaker {
	threshold := bc.FailureThreshold
	if threshold == 0 {
		threshold = 3
	}
	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: bc.MaxRequests,
		Interval:    bc.Interval,
		Timeout:     bc.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			l.Warn("circuit breaker state change",
				applogger.String("provider", name),
				applogger.String("from", from.String()),
				applogger.String("to", to.String()),
			)
		},
		// a cancelled caller says nothing about the provider's health
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	}
	return gobreaker.NewCircuitBreaker(st)
}

// getJSON waits for a limiter token then performs the GET through the breaker.
func (s *httpSource) getJSON(ctx context.Context, rawURL string, query map[string]string, dest interface{}) error {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx, s.host()); err != nil {
			return fmt.Errorf("%s: rate limit wait: %w", s.name, err)
		}
	}

	start := time.Now()
	_, err := s.breaker.Execute(func() (interface{}, error) {
		return nil, s.client.GetJSON(ctx, rawURL, query, dest)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%s: %w", s.name, ErrBreakerOpen)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", s.name, err)
	}
	s.log.Debug("provider request",
		applogger.String("provider", s.name),
		applogger.String("url", rawURL),
		applogger.Duration("latency_ms", time.Since(start)),
	)
	return nil
}

func (s *httpSource) host() string {
	if u, err := url.Parse(s.baseURL); err == nil && u.Host != "" {
		return u.Host
	}
	return s.name
}

// State exposes the breaker state for health reporting.
func (s *httpSource) State() gobreaker.State {
	return s.breaker.State()
}

// NewClient builds the shared outbound HTTP client.
func NewClient(cfg *config.Config) *xhttp.Client {
	return xhttp.NewClient(
		xhttp.WithTimeout(cfg.Sources.Timeout),
		xhttp.WithUserAgent(userAgent),
	)
}

// NewLimiter builds the per-host limiter shared by all providers.
func NewLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.Sources.Limiter.RPS, cfg.Sources.Limiter.Burst)
}
