package middleware

import (
	"net/http"
	"sync"

	"github.com/authgw/gateway/pkg/metrics"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// MemoryLimiter is an in-process token bucket per key.
type MemoryLimiter struct {
	rps      float64
	burst    int
	limiters sync.Map // map[string]*rate.Limiter
}

func NewMemoryLimiter(rps float64, burst int) *MemoryLimiter {
	return &MemoryLimiter{rps: rps, burst: burst}
}

// getLimiter returns (and lazily creates) a token-bucket limiter for the given key
func (m *MemoryLimiter) getLimiter(key string) *rate.Limiter {
	if v, ok := m.limiters.Load(key); ok {
		return v.(*rate.Limiter)
	}
	v, _ := m.limiters.LoadOrStore(key, rate.NewLimiter(rate.Limit(m.rps), m.burst))
	return v.(*rate.Limiter)
}

// Middleware enforces the limit per client IP. It runs ahead of routing, before any
// credential has been read.
func (m *MemoryLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.getLimiter(limitKey(c)).Allow() {
			c.Header("Retry-After", "1")
			metrics.RateLimitRejected.WithLabelValues("memory").Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("memory").Inc()
		c.Next()
	}
}

func limitKey(c *gin.Context) string {
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}
