package database

import (
	"fmt"

	"gorm.io/gorm"
)

// Migrate creates or updates the given tables.
func Migrate(db *gorm.DB, models ...any) error {
	for _, m := range models {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("migrate %T: %w", m, err)
		}
	}
	return nil
}
