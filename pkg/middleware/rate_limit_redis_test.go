package middleware

import (
	"net/http"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRedisLimiter_Basic(t *testing.T) {
	m := mr.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	defer client.Close()

	now := time.Unix(1_700_000_000, 0)
	lim := NewRedisLimiter(client, 1, 0, time.Second) // 1 req/sec, no burst
	lim.now = func() time.Time { return now }

	r := gin.New()
	r.Use(lim.Middleware())
	r.GET("/r", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	require.Equal(t, http.StatusOK, doGet(r, "/r").Code)

	w := doGet(r, "/r")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.Equal(t, "1", w.Header().Get("Retry-After"))

	// next window
	now = now.Add(time.Second)
	require.Equal(t, http.StatusOK, doGet(r, "/r").Code)

	// window keys carry a TTL so they never pile up
	for _, k := range m.Keys() {
		require.Greater(t, m.TTL(k), time.Duration(0), k)
	}
}

func TestRedisLimiter_FailsOpen(t *testing.T) {
	m := mr.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	defer client.Close()
	m.SetError("ERR injected failure")

	r := gin.New()
	r.Use(NewRedisLimiter(client, 1, 0, time.Second).Middleware())
	r.GET("/r", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	require.Equal(t, http.StatusOK, doGet(r, "/r").Code)
}
