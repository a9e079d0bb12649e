package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/authgw/gateway/pkg/logger"
	"github.com/authgw/gateway/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const redisLimitPrefix = "rl:"

// RedisLimiter is a coarse fixed-window limiter shared by every gateway replica.
// Algorithm: INCR a per-window key and compare against allowed = floor(rps*window)+burst.
type RedisLimiter struct {
	client  *redis.Client
	window  time.Duration
	allowed int64
	now     func() time.Time
}

func NewRedisLimiter(client *redis.Client, rps float64, burst int, window time.Duration) *RedisLimiter {
	if window < time.Second {
		window = time.Second
	}
	return &RedisLimiter{
		client:  client,
		window:  window,
		allowed: int64(rps*window.Seconds()) + int64(burst),
		now:     time.Now,
	}
}

// Middleware enforces the limit. When Redis cannot be reached the request is let through:
// the session routes report the outage themselves.
func (r *RedisLimiter) Middleware() gin.HandlerFunc {
	windowSeconds := int64(r.window / time.Second)
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		bucket := r.now().Unix() / windowSeconds
		key := fmt.Sprintf("%s%s:%d", redisLimitPrefix, limitKey(c), bucket)

		cnt, err := r.client.Incr(ctx, key).Result()
		if err != nil {
			logger.Warnf("rate limit check failed, allowing request: %v", err)
			c.Next()
			return
		}
		if cnt == 1 {
			_ = r.client.Expire(ctx, key, r.window+time.Second).Err()
		}
		if cnt > r.allowed {
			c.Header("Retry-After", fmt.Sprintf("%d", windowSeconds))
			metrics.RateLimitRejected.WithLabelValues("redis").Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("redis").Inc()
		c.Next()
	}
}
