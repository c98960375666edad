package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// KeyedLimiter is satisfied by per-key token buckets.
type KeyedLimiter interface {
	Allow(key string) bool
}

// RateLimit rejects requests with 429 once the client IP runs out of tokens.
func RateLimit(lim KeyedLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if lim != nil && !lim.Allow(c.RealIP()) {
				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"status":  http.StatusTooManyRequests,
					"message": http.StatusText(http.StatusTooManyRequests),
				})
			}
			return next(c)
		}
	}
}
