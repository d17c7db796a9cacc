package audit

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// GormSink persists entries to the generation_audits table
type GormSink struct {
	db *gorm.DB
}

// NewGormSink creates a sink backed by db
func NewGormSink(db *gorm.DB) *GormSink {
	return &GormSink{db: db}
}

// Migrate creates or updates the audit table
func (s *GormSink) Migrate() error {
	if err := s.db.AutoMigrate(&Entry{}); err != nil {
		return fmt.Errorf("failed to migrate audit table: %w", err)
	}
	return nil
}

// Append inserts entry
func (s *GormSink) Append(ctx context.Context, entry *Entry) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to save audit entry: %w", err)
	}
	return nil
}

// Recent returns the newest entries first, optionally only failures
func (s *GormSink) Recent(ctx context.Context, limit int, failuresOnly bool) ([]Entry, error) {
	query := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if failuresOnly {
		query = query.Where("outcome <> ?", OutcomeOK)
	}

	var entries []Entry
	if err := query.Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	return entries, nil
}
