package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-fee-sync/internal/agent"
	"github.com/noah-isme/sma-fee-sync/internal/gateway"
	"github.com/noah-isme/sma-fee-sync/internal/session"
	feesync "github.com/noah-isme/sma-fee-sync/internal/sync"
	"github.com/noah-isme/sma-fee-sync/pkg/cache"
	"github.com/noah-isme/sma-fee-sync/pkg/config"
	"github.com/noah-isme/sma-fee-sync/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-fee-sync/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-fee-sync/pkg/middleware/requestid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	var tokens session.TokenProvider
	switch cfg.Session.Source {
	case config.SessionSourceRedis:
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect to redis", "error", err)
		}
		defer redisClient.Close() //nolint:errcheck
		tokens = session.NewRedisStore(redisClient, cfg.Session.RedisKey)
	default:
		tokens = session.NewFileStore(cfg.Session.TokenFile)
	}

	metrics := gateway.NewMetrics()
	client := gateway.NewClient(gateway.ClientConfig{
		BaseURL: cfg.Gateway.BaseURL,
		Tokens:  tokens,
		Timeout: cfg.Gateway.Timeout,
		Logger:  logr,
		Metrics: metrics,
	})

	engine := feesync.NewEngine(feesync.EngineConfig{
		Gateway:          client,
		DebounceInterval: cfg.Sync.DebounceInterval,
		SuccessNoticeTTL: cfg.Sync.SuccessNoticeTTL,
		ErrorNoticeTTL:   cfg.Sync.ErrorNoticeTTL,
		Logger:           logr,
	})

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	agent.NewHandler(engine).Register(r)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Sugar().Infow("fee agent starting", "addr", srv.Addr, "gateway", cfg.Gateway.BaseURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()

	// Tear down the engine first so in-flight reloads lose the right to
	// commit, then drain the HTTP server.
	engine.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("shutdown incomplete", "error", err)
	}
}
