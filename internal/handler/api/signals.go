package api

import (
	"encoding/json"
	"net/http"
	"time"

	icache "CoinStrat/internal/service/cache"
	"CoinStrat/internal/service/metrics"
	xhttp "CoinStrat/pkg/http"
	applogger "CoinStrat/pkg/logger"

	"github.com/labstack/echo/v4"
)

// responseCache serves rendered GET envelopes from a BytesCache.
type responseCache struct {
	cache icache.BytesCache
	ttl   time.Duration
	l     *applogger.Logger
}

// serve writes the cached body for key, or runs load and caches its successful envelope.
// cacheControl, when set, is sent with successful responses only.
func (rc *responseCache) serve(c echo.Context, endpoint, key, cacheControl string, load func() (interface{}, error)) error {
	start := time.Now()
	defer func() { metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	ctx := c.Request().Context()
	if rc.cache != nil && rc.ttl > 0 {
		if b, ok, err := rc.cache.GetBytes(ctx, key); err != nil {
			rc.l.Warn("response cache get failed", applogger.String("endpoint", endpoint), applogger.Error(err))
		} else if ok {
			metrics.ResponseCacheHits.WithLabelValues(endpoint, "hit").Inc()
			return rc.write(c, cacheControl, b)
		}
		metrics.ResponseCacheHits.WithLabelValues(endpoint, "miss").Inc()
	}

	data, err := load()
	if err != nil {
		metrics.APIErrors.WithLabelValues(endpoint).Inc()
		return errorResponse(c, rc.l, endpoint, err)
	}

	b, err := json.Marshal(xhttp.APIResponse{
		Status:  http.StatusOK,
		Message: http.StatusText(http.StatusOK),
		Data:    data,
	})
	if err != nil {
		rc.l.Error("response marshal failed", applogger.String("endpoint", endpoint), applogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	if rc.cache != nil && rc.ttl > 0 {
		if err := rc.cache.SetBytes(ctx, key, b, rc.ttl); err != nil {
			rc.l.Warn("response cache set failed", applogger.String("endpoint", endpoint), applogger.Error(err))
		}
	}
	return rc.write(c, cacheControl, b)
}

func (rc *responseCache) write(c echo.Context, cacheControl string, b []byte) error {
	if cacheControl != "" {
		c.Response().Header().Set(echo.HeaderCacheControl, cacheControl)
	}
	return c.JSONBlob(http.StatusOK, b)
}
