package logpool

import (
	"errors"
	"fmt"

	"llamabridge/internal/models"

	"gorm.io/gorm"
)

// DBProcessor writes request log records through gorm.
type DBProcessor struct {
	db *gorm.DB
}

// NewDBProcessor creates a processor bound to the given database handle.
func NewDBProcessor(db *gorm.DB) *DBProcessor {
	return &DBProcessor{db: db}
}

// WriteRecord inserts one record. Duplicate IDs are treated as permanent
// failures by the pool's retry logic.
func (p *DBProcessor) WriteRecord(record *models.RequestLog) error {
	if record == nil {
		return errors.New("record is nil")
	}
	if err := p.db.Create(record).Error; err != nil {
		return fmt.Errorf("failed to insert request log: %w", err)
	}
	return nil
}
