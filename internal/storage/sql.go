package storage

import (
	"context"
	"errors"
	"time"

	"github.com/sweetfrozen/storefront/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SQLBackend stores records in the kv_entries table.
type SQLBackend struct {
	db  *gorm.DB
	now func() time.Time
}

func NewSQLBackend(db *gorm.DB) *SQLBackend {
	return &SQLBackend{db: db, now: time.Now}
}

func (s *SQLBackend) Read(ctx context.Context, key string) ([]byte, error) {
	var entry models.KVEntry
	err := s.db.WithContext(ctx).
		Where("entry_key = ?", key).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(entry.Value), nil
}

func (s *SQLBackend) Write(ctx context.Context, key string, value []byte) error {
	entry := models.KVEntry{
		Key:       key,
		Value:     string(value),
		UpdatedAt: s.now().UTC(),
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "entry_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&entry).Error
}

func (s *SQLBackend) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).
		Where("entry_key = ?", key).
		Delete(&models.KVEntry{}).Error
}
