package database

import (
	"fmt"

	"matchday/internal/models"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Options tunes the gorm session opened by Connect.
type Options struct {
	Driver  string // postgres | sqlite
	DSN     string
	LogMode logger.LogLevel
}

// Connect establishes the database connection for the configured driver
func Connect(opts Options) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch opts.Driver {
	case "sqlite":
		dialector = sqlite.Open(opts.DSN)
	case "postgres", "":
		dialector = postgres.Open(opts.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}

	logMode := opts.LogMode
	if logMode == 0 {
		logMode = logger.Error
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logMode),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if opts.Driver == "sqlite" {
		if err := prepareSQLite(db); err != nil {
			return nil, err
		}
	}

	log.Info().Str("driver", dialector.Name()).Msg("database connection established")
	return db, nil
}

// prepareSQLite pins the pool to one connection, so the foreign_keys pragma
// and in-memory databases apply to every statement.
func prepareSQLite(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to access sqlite pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return fmt.Errorf("failed to enable sqlite foreign keys: %w", err)
	}
	return nil
}

// AutoMigrate runs automatic migrations for all models. Order matters:
// referenced tables first so the foreign keys can be created.
func AutoMigrate(db *gorm.DB) error {
	coreModels := []interface{}{
		&models.User{},
		&models.Team{},
		&models.Match{},
		&models.Prediction{},
	}

	for _, model := range coreModels {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("migration failed for %T: %w", model, err)
		}
	}

	log.Info().Int("models", len(coreModels)).Msg("database migrations completed")
	return nil
}
