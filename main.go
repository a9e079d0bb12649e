package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/authgw/gateway/handlers"
	"github.com/authgw/gateway/internal/audit"
	"github.com/authgw/gateway/internal/config"
	"github.com/authgw/gateway/internal/database"
	"github.com/authgw/gateway/internal/sessions"
	"github.com/authgw/gateway/internal/tokens"
	"github.com/authgw/gateway/internal/upstream"
	"github.com/authgw/gateway/pkg/logger"
	"github.com/authgw/gateway/pkg/metrics"
	"github.com/authgw/gateway/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

const (
	mongoConnectAttempts = 5
	auditQueueSize       = 1024
	auditWriteTimeout    = 2 * time.Second
	readyTimeout         = 2 * time.Second
	shutdownTimeout      = 15 * time.Second
)

var startTime = time.Now()

func main() {
	// initialize logging (can be controlled with LOG_LEVEL env: debug|info|warn|error|fatal)
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Init(cfg.LogLevel)
	logger.Infof("config loaded: redis=%s mongo=%v rate_limit=%v", cfg.Redis.Addr(), cfg.MongoDB.URI != "", cfg.RateLimit.Enabled)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := database.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		// the store is fallible at runtime; /ready reports it until Redis comes up
		logger.Warnf("redis ping failed (%s): %v", cfg.Redis.Addr(), err)
	}
	store := sessions.NewRedisStore(rdb)

	codec, err := tokens.NewCodec(cfg.JWT)
	if err != nil {
		logger.Fatalf("invalid token settings: %v", err)
	}
	logger.Infof("signing tokens with %s", codec.Algorithm())

	recorder, closeRecorder := newRecorder(ctx, cfg.MongoDB)
	defer closeRecorder()

	svc := sessions.NewService(store, codec, sessions.WithRecorder(recorder))

	hc := &http.Client{Timeout: cfg.Upstream.Timeout}
	h := handlers.NewAuthHandler(cfg,
		upstream.NewAccountClient(hc, cfg.Upstream.AccountRegisterURL, cfg.Upstream.AccountLoginURL),
		upstream.NewNotificationClient(hc, cfg.Upstream.NotificationCodeURL),
		svc,
	)
	if cfg.Upstream.NotificationCodeURL == "" {
		logger.Warnf("NOTIFICATION_CODE_URL not set: verification codes will not be sent")
	}

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r := newRouter(cfg, rdb, svc, h)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("starting auth gateway on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("server failed: %v", err)
		}
	case <-ctx.Done():
		logger.Infof("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("graceful shutdown failed: %v", err)
		}
		cancel()
	}

	// in-flight store writes have finished once Shutdown returns
	if err := store.Close(); err != nil {
		logger.Warnf("closing redis: %v", err)
	}
}

// newRecorder returns the Mongo audit sink when configured, falling back to the log sink.
func newRecorder(ctx context.Context, cfg config.MongoDBConfig) (audit.Recorder, func()) {
	if cfg.URI == "" {
		return audit.LogRecorder{}, func() {}
	}
	client, err := database.ConnectMongo(ctx, cfg.URI, cfg.Timeout, mongoConnectAttempts)
	if err != nil {
		logger.Warnf("audit disabled, could not connect to MongoDB: %v", err)
		return audit.LogRecorder{}, func() {}
	}
	rec := audit.NewMongoRecorder(client.Database(cfg.Database).Collection(audit.CollectionName))
	if err := rec.EnsureIndexes(ctx); err != nil {
		logger.Warnf("audit index setup failed: %v", err)
	}
	logger.Infof("recording session events in MongoDB %s.%s", cfg.Database, audit.CollectionName)
	async := audit.NewAsyncRecorder(rec, auditQueueSize, auditWriteTimeout)
	return async, func() {
		async.Close()
		_ = client.Disconnect(context.Background())
	}
}

// pinger is satisfied by the session service.
type pinger interface {
	Ping(ctx context.Context) error
}

func newRouter(cfg *config.Config, rdb *redis.Client, store pinger, h *handlers.AuthHandler) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// Lightweight CORS middleware: set common headers and respond to OPTIONS.
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, "+middleware.RequestIDHeader)
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length, "+middleware.RequestIDHeader)
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	})
	r.Use(middleware.RequestID(), middleware.RequestLogger(), gin.Recovery())

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && rdb != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.NewRedisLimiter(rdb, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win).Middleware())
		} else {
			r.Use(middleware.NewMemoryLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst).Middleware())
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// readiness: 200 only when the session store answers
	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
		defer cancel()
		deps := map[string]bool{"redis": true}
		if err := store.Ping(ctx); err != nil {
			deps["redis"] = false
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "deps": deps, "uptime": time.Since(startTime).String()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "deps": deps, "uptime": time.Since(startTime).String()})
	})

	h.Register(r.Group("/v1"))
	handlers.RegisterSwagger(r)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}
