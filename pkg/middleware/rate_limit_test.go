package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/authgw/gateway/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func doGet(r http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestMemoryLimiter_AllowsUnderLimit(t *testing.T) {
	r := gin.New()
	r.Use(NewMemoryLimiter(10, 2).Middleware()) // generous rate
	r.GET("/ok", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	before := testutil.ToFloat64(metrics.RateLimitAllowed.WithLabelValues("memory"))
	require.Equal(t, http.StatusOK, doGet(r, "/ok").Code)
	require.Equal(t, http.StatusOK, doGet(r, "/ok").Code)
	require.Equal(t, before+2, testutil.ToFloat64(metrics.RateLimitAllowed.WithLabelValues("memory")))
}

func TestMemoryLimiter_BlocksWhenExceeded(t *testing.T) {
	r := gin.New()
	r.Use(NewMemoryLimiter(2, 1).Middleware())
	r.GET("/limited", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	require.Equal(t, http.StatusOK, doGet(r, "/limited").Code)

	before := testutil.ToFloat64(metrics.RateLimitRejected.WithLabelValues("memory"))
	w := doGet(r, "/limited")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.Equal(t, "1", w.Header().Get("Retry-After"))
	require.Equal(t, before+1, testutil.ToFloat64(metrics.RateLimitRejected.WithLabelValues("memory")))

	// one token replenishes after 0.5s
	time.Sleep(600 * time.Millisecond)
	require.Equal(t, http.StatusOK, doGet(r, "/limited").Code)
}

func TestMemoryLimiter_SeparateBucketPerClientIP(t *testing.T) {
	r := gin.New()
	r.Use(NewMemoryLimiter(0.5, 1).Middleware())
	r.GET("/u", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	from := func(addr string) int {
		req := httptest.NewRequest("GET", "/u", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	require.Equal(t, http.StatusOK, from("10.0.0.1:1234"))
	require.Equal(t, http.StatusTooManyRequests, from("10.0.0.1:5678"))
	require.Equal(t, http.StatusOK, from("10.0.0.2:1234"))
}

func TestLimitKey(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/", nil)
	c.Request.RemoteAddr = "10.0.0.9:4000"
	require.Equal(t, "ip:10.0.0.9", limitKey(c))
}
