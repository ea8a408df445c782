package database

import (
	"testing"

	"matchday/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenMemoryMigratesSchema(t *testing.T) {
	db, err := OpenMemory()
	require.NoError(t, err)

	for _, model := range []interface{}{&models.User{}, &models.Team{}, &models.Match{}, &models.Prediction{}} {
		assert.True(t, db.Migrator().HasTable(model), "%T table missing", model)
	}

	assert.True(t, db.Migrator().HasIndex(&models.Prediction{}, "idx_predictions_user_match"))
	assert.True(t, db.Migrator().HasIndex(&models.Match{}, "idx_matches_fixture"))
}

func TestOpenMemoryIsIsolated(t *testing.T) {
	first, err := OpenMemory()
	require.NoError(t, err)
	second, err := OpenMemory()
	require.NoError(t, err)

	require.NoError(t, first.Create(&models.User{Username: "alice", PasswordHash: "x"}).Error)

	var count int64
	require.NoError(t, second.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestForeignKeysEnforced(t *testing.T) {
	db, err := OpenMemory()
	require.NoError(t, err)

	err = db.Create(&models.Match{HomeTeamID: 41, AwayTeamID: 42, Status: models.MatchStatusScheduled}).Error
	assert.Error(t, err)
}

func TestConnectRejectsUnknownDriver(t *testing.T) {
	_, err := Connect(Options{Driver: "mysql", DSN: "x"})
	assert.Error(t, err)
}
