package middleware

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/helcity/homesales/common/config"
	"github.com/helcity/homesales/common/ratelimit"
)

// RateLimit throttles mutating requests per actor. Reads are never
// limited; queue correctness does not depend on this middleware.
func RateLimit(limiter *ratelimit.Limiter, cfg config.RateLimitConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Enabled || c.Request().Method == http.MethodGet {
				return next(c)
			}

			actor := c.Request().Header.Get("X-User-ID")
			if actor == "" {
				actor = c.RealIP()
			}

			result, err := limiter.CheckActorLimit(
				c.Request().Context(),
				actor,
				cfg.MutationLimit,
				cfg.WindowSeconds,
			)
			if err != nil {
				// Redis trouble must not block sales operations.
				return next(c)
			}

			if !result.Allowed {
				c.Response().Header().Set("Retry-After", fmt.Sprintf("%d", result.RetryAfterSeconds))
				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"error":       "rate limit exceeded",
					"retry_after": result.RetryAfterSeconds,
				})
			}

			return next(c)
		}
	}
}
