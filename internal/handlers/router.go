package handlers

import (
	"net/http"
	"time"

	"matchday/internal/auth"
	"matchday/internal/logging"
	"matchday/internal/metrics"
	"matchday/internal/middleware"
	"matchday/internal/services"
	"matchday/internal/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// defaultOrigins are the local frontends allowed by CORS.
var defaultOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
	"http://127.0.0.1:3000",
	"http://127.0.0.1:5173",
}

// RouterConfig carries the HTTP-level settings.
type RouterConfig struct {
	FrontendURL string
	AuthLimiter *middleware.IPRateLimiter
	Logger      zerolog.Logger
	Metrics     *metrics.Metrics
	Store       storage.Store
	MediaPrefix string
	ReleaseMode bool
}

// Services bundles what the handlers call into.
type Services struct {
	Auth        *services.AuthService
	Teams       *services.TeamService
	Matches     *services.MatchService
	Predictions *services.PredictionService
}

// NewRouter wires middleware and routes.
func NewRouter(cfg RouterConfig, svc Services) *gin.Engine {
	if cfg.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logging.Middleware(cfg.Logger))
	if cfg.Metrics != nil {
		router.Use(cfg.Metrics.Middleware())
	}

	allowedOrigins := append([]string{}, defaultOrigins...)
	if cfg.FrontendURL != "" {
		allowedOrigins = append(allowedOrigins, cfg.FrontendURL)
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", logging.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", logging.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})
	if cfg.Metrics != nil {
		router.GET("/metrics", cfg.Metrics.Handler())
	}

	// Logos written by the filesystem store are served straight from disk.
	if fs, ok := cfg.Store.(*storage.Filesystem); ok && cfg.MediaPrefix != "" {
		router.Static(cfg.MediaPrefix, fs.Root())
	}

	authHandler := NewAuthHandler(svc.Auth)
	teamHandler := NewTeamHandler(svc.Teams)
	matchHandler := NewMatchHandler(svc.Matches)
	predictionHandler := NewPredictionHandler(svc.Predictions)

	// Authentication routes (public, throttled per client)
	authRoutes := router.Group("/auth")
	if cfg.AuthLimiter != nil {
		authRoutes.Use(middleware.RateLimit(cfg.AuthLimiter))
	}
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
	}

	// Authenticated /auth/me route
	authProtected := router.Group("/auth")
	authProtected.Use(auth.AuthMiddleware())
	{
		authProtected.GET("/me", authHandler.GetMe)
	}

	// API routes (protected)
	api := router.Group("/api")
	api.Use(auth.AuthMiddleware())
	{
		teams := api.Group("/teams")
		{
			teams.GET("", teamHandler.ListTeams)
			teams.POST("", teamHandler.CreateTeam)
			teams.GET("/:id", teamHandler.GetTeam)
			teams.PUT("/:id", teamHandler.UpdateTeam)
			teams.DELETE("/:id", teamHandler.DeleteTeam)
			teams.POST("/:id/logo", teamHandler.UploadLogo)
		}

		matches := api.Group("/matches")
		{
			matches.GET("", matchHandler.ListMatches)
			matches.POST("", matchHandler.CreateMatch)
			matches.GET("/:id", matchHandler.GetMatch)
			matches.PUT("/:id", matchHandler.UpdateMatch)
			matches.DELETE("/:id", matchHandler.DeleteMatch)
		}

		predictions := api.Group("/predictions")
		{
			predictions.GET("", predictionHandler.ListPredictions)
			predictions.POST("", predictionHandler.CreatePrediction)
			predictions.GET("/:id", predictionHandler.GetPrediction)
			predictions.PUT("/:id", predictionHandler.UpdatePrediction)
			predictions.DELETE("/:id", predictionHandler.DeletePrediction)
		}
	}

	return router
}
