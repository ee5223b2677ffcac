package database

import (
	"codescan/internal/models"

	"gorm.io/gorm"
)

// SchemaVersion is the version of the code_records layout. There are no migrations yet.
const SchemaVersion = 1

// migrateTables creates/updates database tables
func migrateTables(db *gorm.DB) error {
	return db.AutoMigrate(&models.CodeRecordEntity{})
}
