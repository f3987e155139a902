package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jhk/storefront/internal/domain/cart"
	"github.com/jhk/storefront/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCartSnapshotStore implements cart.SnapshotStore on the cart_snapshots table
type GormCartSnapshotStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormCartSnapshotStore creates a new GormCartSnapshotStore
func NewGormCartSnapshotStore(db *gorm.DB) *GormCartSnapshotStore {
	return &GormCartSnapshotStore{db: db, now: time.Now}
}

// Load returns the snapshot stored under key
func (s *GormCartSnapshotStore) Load(ctx context.Context, key string) ([]byte, error) {
	var model models.CartSnapshotModel
	if err := s.db.WithContext(ctx).Where("cart_key = ?", key).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, cart.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to load cart snapshot: %w", err)
	}
	return []byte(model.Data), nil
}

// Save upserts the snapshot stored under key
func (s *GormCartSnapshotStore) Save(ctx context.Context, key string, data []byte) error {
	model := models.CartSnapshotModel{
		Key:       key,
		Data:      string(data),
		UpdatedAt: s.now().UTC(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cart_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&model).Error
	if err != nil {
		return fmt.Errorf("failed to save cart snapshot: %w", err)
	}
	return nil
}

// DeleteOlderThan removes snapshots not saved since cutoff and returns how many were removed
func (s *GormCartSnapshotStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Where("updated_at < ?", cutoff.UTC()).Delete(&models.CartSnapshotModel{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

var _ cart.SnapshotStore = (*GormCartSnapshotStore)(nil)
