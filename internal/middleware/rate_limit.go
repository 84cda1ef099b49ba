package middleware

import (
	"net/http"
	"strings"

	"cyoa-server/internal/models"
	"cyoa-server/internal/ratelimit"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// HeaderUserID carries the caller's user id.
const HeaderUserID = "X-User-ID"

// CallerID identifies the caller for rate limiting: the X-User-ID header,
// then the user_id query parameter, then the client IP.
func CallerID(c echo.Context) string {
	if id := strings.TrimSpace(c.Request().Header.Get(HeaderUserID)); id != "" {
		return id
	}
	if id := strings.TrimSpace(c.QueryParam("user_id")); id != "" {
		return id
	}
	return c.RealIP()
}

// RateLimit rejects callers whose bucket is empty with 429. Limiter errors
// are logged and the request goes through.
func RateLimit(limiter ratelimit.Limiter, log *zap.Logger) echo.MiddlewareFunc {
	log = log.Named("RateLimit")
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := CallerID(c)
			allowed, err := limiter.Allow(c.Request().Context(), key)
			if err != nil {
				log.Warn("Rate limiter unavailable, letting request through", zap.String("caller", key), zap.Error(err))
				rateLimitDecisions.WithLabelValues("error").Inc()
				return next(c)
			}
			if !allowed {
				log.Debug("Request rate limited", zap.String("caller", key), zap.String("path", c.Path()))
				rateLimitDecisions.WithLabelValues("denied").Inc()
				return c.JSON(http.StatusTooManyRequests, map[string]string{"message": models.ErrRateLimited.Error()})
			}
			rateLimitDecisions.WithLabelValues("allowed").Inc()
			return next(c)
		}
	}
}
