package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/syrena/backend/internal/middleware"
	"github.com/anonto42/syrena/backend/internal/realtime"
	"github.com/anonto42/syrena/backend/internal/router"
	"github.com/anonto42/syrena/backend/pkg/config"
	"github.com/anonto42/syrena/backend/pkg/firebase"
	"github.com/anonto42/syrena/backend/validators"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg := config.Load()

	logger, err := config.NewLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	if !cfg.EnvFileLoaded {
		logger.Info("no .env file found, using environment variables")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database connections
	db, err := config.InitDB(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize databases", zap.Error(err))
	}
	defer db.CloseDB()

	repos, err := router.NewPostgresMongoRepositories(ctx, db)
	if err != nil {
		logger.Fatal("failed to prepare repositories", zap.Error(err))
	}

	// Firebase is optional outside of firebase auth
	var firebaseApp *firebase.App
	if cfg.FirebaseEnabled() {
		firebaseApp, err = firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath, cfg.FCMServiceAccountJSON)
		if err != nil {
			logger.Fatal("failed to initialize firebase", zap.Error(err))
		}
	} else if cfg.AuthProvider == config.AuthProviderFirebase {
		logger.Fatal("AUTH_PROVIDER=firebase requires firebase credentials")
	}

	hub := realtime.NewHub(logger.Named("realtime"), nil)
	defer hub.Close()

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go limiter.Cleanup(ctx)

	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()

	config.SetupMiddleware(e, cfg, logger)
	router.SetupRoutes(e, router.Deps{
		Config:      cfg,
		Logger:      logger,
		Repos:       repos,
		Health:      db,
		Firebase:    firebaseApp,
		Hub:         hub,
		RateLimiter: limiter,
	})

	go func() {
		logger.Info("server starting", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
