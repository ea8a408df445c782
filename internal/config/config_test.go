package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 24, cfg.App.JWTExpiryHours)
	assert.True(t, cfg.Prediction.ProbabilityTolerance.Equal(decimal.RequireFromString("0.05")))
	assert.Equal(t, 5*time.Minute, cfg.Scoring.Interval)
	assert.True(t, cfg.Scoring.Enabled)
	assert.Equal(t, "fs", cfg.Storage.Driver)
	assert.Contains(t, cfg.GetDSN(), "dbname=matchday")
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadTolerance(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PREDICTION_PROBABILITY_TOLERANCE", "0.1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Prediction.ProbabilityTolerance.Equal(decimal.RequireFromString("0.1")))

	t.Setenv("PREDICTION_PROBABILITY_TOLERANCE", "-0.1")
	_, err = Load()
	require.Error(t, err)

	t.Setenv("PREDICTION_PROBABILITY_TOLERANCE", "lots")
	_, err = Load()
	require.Error(t, err)
}

func TestSQLiteDSN(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", "/tmp/matchday.db")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/matchday.db?_foreign_keys=on", cfg.GetDSN())
}

func TestS3RequiresBucket(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("STORAGE_DRIVER", "s3")
	t.Setenv("STORAGE_S3_BUCKET", "")

	_, err := Load()
	require.Error(t, err)
}
