package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/sma-fee-sync/internal/simulator"
	"github.com/noah-isme/sma-fee-sync/pkg/config"
	"github.com/noah-isme/sma-fee-sync/pkg/database"
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

	var repo simulator.Repository
	switch cfg.Simulator.Backend {
	case "postgres":
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
		}
		defer db.Close() //nolint:errcheck
		repo = simulator.NewPostgresRepository(db)
	default:
		memory := simulator.NewMemoryRepository()
		if cfg.Simulator.SeedDemoData {
			if err := simulator.SeedDemoData(memory); err != nil {
				logr.Sugar().Fatalw("failed to seed demo data", "error", err)
			}
		}
		repo = memory
	}

	service := simulator.NewService(repo, logr, simulator.ServiceConfig{
		OverduePeriod: cfg.Simulator.OverduePeriod,
	})
	auth := simulator.NewAuth(repo, simulator.AuthConfig{
		Secret:      cfg.Simulator.JWTSecret,
		TokenExpiry: cfg.Simulator.TokenExpiry,
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

	simulator.NewHandler(service, auth, validator.New()).Register(r)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("gateway simulator starting", "addr", addr, "backend", cfg.Simulator.Backend)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
