// Package db opens the request-log database and keeps its schema current.
// SQLite is the default; MySQL and PostgreSQL are selected by DSN shape so
// deployments can point at shared infrastructure without a separate flag.
package db

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"llamabridge/internal/config"
	migrations "llamabridge/internal/db/migrations"
	"llamabridge/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewDB connects to the configured database and migrates the schema.
func NewDB(cfg *config.Manager) (*gorm.DB, error) {
	dialector, err := selectDialector(cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	gormConfig := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	}
	if logrus.GetLevel() >= logrus.DebugLevel {
		gormConfig.Logger = gormlogger.Default.LogMode(gormlogger.Warn)
	}

	database, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := database.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := runMigrations(database); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logrus.WithField("dialect", database.Dialector.Name()).Info("Database ready")
	return database, nil
}

// runMigrations applies versioned migrations first so columns carry the
// defaults AutoMigrate would omit, then lets AutoMigrate fill in the rest.
func runMigrations(database *gorm.DB) error {
	if err := migrations.V1_1_0_AddErrorCodeColumn(database); err != nil {
		return err
	}
	return database.AutoMigrate(&models.RequestLog{})
}

func selectDialector(dsn string) (gorm.Dialector, error) {
	trimmed := strings.TrimSpace(dsn)
	switch {
	case trimmed == "":
		return nil, fmt.Errorf("database DSN is empty")
	case strings.HasPrefix(trimmed, "mysql://"):
		return mysql.Open(strings.TrimPrefix(trimmed, "mysql://")), nil
	case strings.Contains(trimmed, "@tcp("):
		return mysql.Open(trimmed), nil
	case strings.HasPrefix(trimmed, "postgres://"), strings.HasPrefix(trimmed, "postgresql://"):
		return postgres.Open(trimmed), nil
	case strings.Contains(trimmed, "host=") && strings.Contains(trimmed, "dbname="):
		return postgres.Open(trimmed), nil
	default:
		return sqliteDialector(trimmed)
	}
}

func sqliteDialector(path string) (gorm.Dialector, error) {
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
	}
	return sqlite.Open(path), nil
}
