// Package bootstrap prepares the database schema at process start.
package bootstrap

import (
	"fmt"

	"gorm.io/gorm"

	"dromeport/internal/models"
)

// Migrate creates or updates the schema for all persisted models.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.SyncPlaylist{}); err != nil {
		return fmt.Errorf("schema migration failed: %w", err)
	}
	return nil
}
