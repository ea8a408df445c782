package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all application configuration
type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig
	App        AppConfig
	Storage    StorageConfig
	Prediction PredictionConfig
	Scoring    ScoringConfig
	RateLimit  RateLimitConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver   string // postgres | sqlite
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	Path     string // sqlite file path
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port        string
	FrontendURL string
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Env            string
	LogLevel       string
	JWTSecret      string
	JWTExpiryHours int
}

// StorageConfig selects the backend for uploaded team logos.
type StorageConfig struct {
	Driver       string // fs | s3 | memory
	FSRoot       string
	PublicPrefix string
	MaxLogoBytes int64
	S3Bucket     string
	S3Region     string
	S3Endpoint   string
	S3PathStyle  bool
	S3AccessKey  string // optional; default credential chain otherwise
	S3SecretKey  string
}

// PredictionConfig holds the validation thresholds for predictions.
type PredictionConfig struct {
	ProbabilityTolerance decimal.Decimal
}

// ScoringConfig controls the background result_points job.
type ScoringConfig struct {
	Enabled  bool
	Interval time.Duration
}

// RateLimitConfig throttles the unauthenticated auth endpoints per client.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Database: DatabaseConfig{
			Driver:   strings.ToLower(getEnv("DB_DRIVER", "postgres")),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "matchday"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			Path:     getEnv("DB_PATH", "matchday.db"),
		},
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			FrontendURL: getEnv("FRONTEND_URL", ""),
		},
		App: AppConfig{
			Env:       getEnv("APP_ENV", "development"),
			LogLevel:  getEnv("LOG_LEVEL", "info"),
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Storage: StorageConfig{
			Driver:       strings.ToLower(getEnv("STORAGE_DRIVER", "fs")),
			FSRoot:       getEnv("STORAGE_FS_ROOT", "./media"),
			PublicPrefix: getEnv("STORAGE_PUBLIC_PREFIX", "/media"),
			S3Bucket:     getEnv("STORAGE_S3_BUCKET", ""),
			S3Region:     getEnv("STORAGE_S3_REGION", "us-east-1"),
			S3Endpoint:   getEnv("STORAGE_S3_ENDPOINT", ""),
			S3PathStyle:  strings.EqualFold(getEnv("STORAGE_S3_PATH_STYLE", "false"), "true"),
			S3AccessKey:  getEnv("STORAGE_S3_ACCESS_KEY_ID", ""),
			S3SecretKey:  getEnv("STORAGE_S3_SECRET_ACCESS_KEY", ""),
		},
		Scoring: ScoringConfig{
			Enabled: !strings.EqualFold(getEnv("SCORING_ENABLED", "true"), "false"),
		},
	}

	var err error
	if config.App.JWTExpiryHours, err = getEnvAsInt("JWT_EXPIRY_HOURS", 24); err != nil {
		return nil, err
	}

	maxLogo, err := getEnvAsInt("STORAGE_MAX_LOGO_BYTES", 2<<20)
	if err != nil {
		return nil, err
	}
	config.Storage.MaxLogoBytes = int64(maxLogo)

	tolerance, err := decimal.NewFromString(getEnv("PREDICTION_PROBABILITY_TOLERANCE", "0.05"))
	if err != nil {
		return nil, fmt.Errorf("invalid PREDICTION_PROBABILITY_TOLERANCE: %w", err)
	}
	if tolerance.IsNegative() {
		return nil, fmt.Errorf("PREDICTION_PROBABILITY_TOLERANCE must not be negative")
	}
	config.Prediction.ProbabilityTolerance = tolerance

	if config.Scoring.Interval, err = time.ParseDuration(getEnv("SCORING_INTERVAL", "5m")); err != nil {
		return nil, fmt.Errorf("invalid SCORING_INTERVAL: %w", err)
	}

	rps, err := strconv.ParseFloat(getEnv("AUTH_RATE_LIMIT_RPS", "1"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid AUTH_RATE_LIMIT_RPS: %w", err)
	}
	config.RateLimit.RequestsPerSecond = rps
	if config.RateLimit.Burst, err = getEnvAsInt("AUTH_RATE_LIMIT_BURST", 5); err != nil {
		return nil, err
	}

	// Validate required fields
	if config.App.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	switch config.Database.Driver {
	case "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", config.Database.Driver)
	}

	switch config.Storage.Driver {
	case "fs", "s3", "memory":
	default:
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER %q", config.Storage.Driver)
	}

	if config.Storage.Driver == "s3" && config.Storage.S3Bucket == "" {
		return nil, fmt.Errorf("STORAGE_S3_BUCKET is required for the s3 storage driver")
	}

	return config, nil
}

// GetDSN returns the connection string for the configured driver
func (c *Config) GetDSN() string {
	if c.Database.Driver == "sqlite" {
		return c.Database.Path + "?_foreign_keys=on"
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

// IsDevelopment reports whether the app runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return fallback, fmt.Errorf("env var %s: expected integer, got '%s'", key, valueStr)
	}
	return value, nil
}
