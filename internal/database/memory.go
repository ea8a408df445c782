package database

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenMemory opens a private, migrated in-memory sqlite database. Tests
// across packages use it as their store.
func OpenMemory() (*gorm.DB, error) {
	db, err := Connect(Options{
		Driver:  "sqlite",
		DSN:     "file::memory:?_foreign_keys=on",
		LogMode: logger.Silent,
	})
	if err != nil {
		return nil, err
	}
	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate in-memory database: %w", err)
	}
	return db, nil
}
