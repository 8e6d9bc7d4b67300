package db

import (
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// V1_1_0_AddErrorCodeColumn adds the error_code column to request_logs.
// Databases created before v1.1.0 logged failures without a stable code,
// so the column has to be added with an explicit empty default.
func V1_1_0_AddErrorCodeColumn(db *gorm.DB) error {
	var columnExists bool

	switch db.Dialector.Name() {
	case "mysql":
		var count int64
		db.Raw(`
			SELECT COUNT(*)
			FROM information_schema.COLUMNS
			WHERE TABLE_SCHEMA = DATABASE()
			AND TABLE_NAME = 'request_logs'
			AND COLUMN_NAME = 'error_code'
		`).Count(&count)
		columnExists = count > 0
	case "sqlite":
		type ColumnInfo struct {
			Name string
		}
		var columns []ColumnInfo
		db.Raw("PRAGMA table_info(request_logs)").Scan(&columns)
		for _, col := range columns {
			if col.Name == "error_code" {
				columnExists = true
				break
			}
		}
	default:
		// PostgreSQL and anything else speaking information_schema
		var count int64
		db.Raw(`
			SELECT COUNT(*)
			FROM information_schema.columns
			WHERE table_name = 'request_logs'
			AND column_name = 'error_code'
		`).Count(&count)
		columnExists = count > 0
	}

	if columnExists {
		logrus.Info("Column error_code already exists in request_logs table, skipping v1.1.0...")
		return nil
	}

	if !db.Migrator().HasTable("request_logs") {
		// Fresh database: AutoMigrate creates the full schema.
		return nil
	}

	logrus.Info("Adding error_code column to request_logs table...")

	if err := db.Exec("ALTER TABLE request_logs ADD COLUMN error_code VARCHAR(64) DEFAULT ''").Error; err != nil {
		return err
	}

	logrus.Info("Migration v1.1.0 completed successfully")
	return nil
}
