package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/talent-assessment-api/internal/service"
	appErrors "github.com/noah-isme/talent-assessment-api/pkg/errors"
	"github.com/noah-isme/talent-assessment-api/pkg/response"
)

// WindowCounter increments a fixed-window counter and returns the count and time left.
type WindowCounter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// RateLimitConfig bounds requests per client IP within a window.
type RateLimitConfig struct {
	Prefix   string
	Requests int
	Window   time.Duration
}

// RateLimit throttles requests per client IP using a shared counter. Counter
// failures let the request through.
func RateLimit(counter WindowCounter, cfg RateLimitConfig, metrics *service.MetricsService, logger *zap.Logger) gin.HandlerFunc {
	if cfg.Requests <= 0 {
		cfg.Requests = 60
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "ratelimit"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := strconv.Itoa(cfg.Requests)

	return func(c *gin.Context) {
		if counter == nil {
			c.Next()
			return
		}
		key := cfg.Prefix + ":" + c.ClientIP()

		count, ttl, err := counter.Incr(c.Request.Context(), key, cfg.Window)
		if err != nil {
			logger.Warn("rate limit counter unavailable", zap.Error(err))
			c.Next()
			return
		}

		remaining := int64(cfg.Requests) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", limit)
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(cfg.Requests) {
			if ttl <= 0 {
				ttl = cfg.Window
			}
			c.Header("Retry-After", strconv.Itoa(int(ttl.Round(time.Second).Seconds())))
			metrics.RecordRateLimited()
			response.Error(c, appErrors.Clone(appErrors.ErrTooManyRequests, http.StatusText(http.StatusTooManyRequests)))
			c.Abort()
			return
		}
		c.Next()
	}
}
