package middleware

import (
	"context"
	"fmt"
	"time"

	"coderunner/internal/cache"
	pkgerrors "coderunner/pkg/errors"
	"coderunner/pkg/utils/logger"
	"coderunner/pkg/utils/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimiter enforces fixed-window per-client limits using Redis.
type RateLimiter struct {
	cache   cache.BasicOps
	window  time.Duration
	timeout time.Duration
}

// NewRateLimiter creates a limiter. A nil cache disables limiting
// (single-tenant deployments without Redis).
func NewRateLimiter(cacheClient cache.BasicOps, window, timeout time.Duration) *RateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	return &RateLimiter{cache: cacheClient, window: window, timeout: timeout}
}

// Allow increments the window counter for key and rejects once max is hit.
// Cache failures admit the request: an unreachable Redis must not take the
// whole service down with it.
func (l *RateLimiter) Allow(ctx context.Context, key string, max int) error {
	if l.cache == nil || max <= 0 {
		return nil
	}

	cctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	acquired, err := l.cache.SetNX(cctx, key, 1, l.window)
	if err != nil {
		logger.Warn(ctx, "rate limit check failed, admitting request",
			zap.String("key", key), zap.Error(err))
		return nil
	}
	var count int64 = 1
	if !acquired {
		count, err = l.cache.Incr(cctx, key)
		if err != nil {
			logger.Warn(ctx, "rate limit check failed, admitting request",
				zap.String("key", key), zap.Error(err))
			return nil
		}
		ttl, ttlErr := l.cache.TTL(cctx, key)
		if ttlErr == nil && ttl <= 0 {
			_ = l.cache.Expire(cctx, key, l.window)
		}
	}
	if int(count) > max {
		return pkgerrors.New(pkgerrors.TooManyRequests)
	}
	return nil
}

// RateLimitMiddleware enforces a per-IP limit on one route.
func RateLimitMiddleware(limiter *RateLimiter, routeKey string, max int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		key := fmt.Sprintf("coderunner:rate:ip:%s:%s", c.ClientIP(), routeKey)
		if err := limiter.Allow(c.Request.Context(), key, max); err != nil {
			response.AbortWithError(c, err)
			return
		}
		c.Next()
	}
}
