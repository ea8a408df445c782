package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"matchday/internal/auth"
	"matchday/internal/config"
	"matchday/internal/database"
	"matchday/internal/handlers"
	"matchday/internal/jobs"
	"matchday/internal/logging"
	"matchday/internal/metrics"
	"matchday/internal/middleware"
	"matchday/internal/repository"
	"matchday/internal/services"
	"matchday/internal/storage"
	"matchday/internal/validation"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	base := logging.Setup(cfg.App.Env, cfg.App.LogLevel)

	// Initialize JWT
	auth.InitJWT(cfg.App.JWTSecret, time.Duration(cfg.App.JWTExpiryHours)*time.Hour)

	// Connect to database
	logMode := logger.Error
	if cfg.IsDevelopment() {
		logMode = logger.Info
	}
	db, err := database.Connect(database.Options{
		Driver:  cfg.Database.Driver,
		DSN:     cfg.GetDSN(),
		LogMode: logMode,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	// Run migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("failed to open logo storage")
	}

	m := metrics.New()
	repo := repository.NewRepository(db)

	// Initialize services
	rules := validation.Rules{ProbabilityTolerance: cfg.Prediction.ProbabilityTolerance}
	svc := handlers.Services{
		Auth:        services.NewAuthService(repo),
		Teams:       services.NewTeamService(repo, store, m, cfg.Storage.MaxLogoBytes),
		Matches:     services.NewMatchService(repo, m),
		Predictions: services.NewPredictionService(repo, rules, m),
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		FrontendURL: cfg.Server.FrontendURL,
		AuthLimiter: middleware.NewIPRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst),
		Logger:      base,
		Metrics:     m,
		Store:       store,
		MediaPrefix: cfg.Storage.PublicPrefix,
		ReleaseMode: !cfg.IsDevelopment(),
	}, svc)

	var scoringJob *jobs.ScoringJob
	if cfg.Scoring.Enabled {
		scoringJob = jobs.NewScoringJob(services.NewScoringService(repo, m), cfg.Scoring.Interval, base)
		scoringJob.Start(ctx)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.Server.Port).Str("storage", string(store.Driver())).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	<-ctx.Done()
	log.Info().Msg("shutting down server")

	if scoringJob != nil {
		scoringJob.Stop()
	}

	// Graceful shutdown with 5 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server exited")
}
