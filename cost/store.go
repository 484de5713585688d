package cost

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// HistoryStore append-only persistence for usage records
type HistoryStore interface {
	// Append writes a batch of records
	Append(ctx context.Context, records []UsageRecord) error

	// ListSince returns a tenant's records sampled at or after since,
	// newest first
	ListSince(ctx context.Context, tenantID string, since time.Time) ([]UsageRecord, error)

	// ListRange returns a tenant's records sampled in [start, end),
	// newest first
	ListRange(ctx context.Context, tenantID string, start, end time.Time) ([]UsageRecord, error)

	// PurgeBefore deletes records sampled before cutoff
	PurgeBefore(ctx context.Context, cutoff time.Time) error
}

// GormHistoryStore HistoryStore on a gorm-managed database
type GormHistoryStore struct {
	db *gorm.DB
}

// NewGormHistoryStore creates a history store on the given database
func NewGormHistoryStore(db *gorm.DB) (*GormHistoryStore, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	return &GormHistoryStore{db: db}, nil
}

// Migrate creates or updates the storage table
func (s *GormHistoryStore) Migrate() error {
	if err := s.db.AutoMigrate(&UsageRecord{}); err != nil {
		return fmt.Errorf("migrate resource_usage: %w", err)
	}
	return nil
}

// Append writes a batch of records in one transaction
func (s *GormHistoryStore) Append(ctx context.Context, records []UsageRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Create(&records).Error; err != nil {
		return fmt.Errorf("append usage records: %w", err)
	}
	return nil
}

// ListSince returns a tenant's records sampled at or after since, newest
// first
func (s *GormHistoryStore) ListSince(ctx context.Context, tenantID string, since time.Time) ([]UsageRecord, error) {
	var records []UsageRecord
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND sampled_at >= ?", tenantID, since).
		Order("sampled_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list usage records: %w", err)
	}
	return records, nil
}

// ListRange returns a tenant's records sampled in [start, end), newest
// first
func (s *GormHistoryStore) ListRange(ctx context.Context, tenantID string, start, end time.Time) ([]UsageRecord, error) {
	var records []UsageRecord
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND sampled_at >= ? AND sampled_at < ?", tenantID, start, end).
		Order("sampled_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list usage records: %w", err)
	}
	return records, nil
}

// PurgeBefore deletes records sampled before cutoff
func (s *GormHistoryStore) PurgeBefore(ctx context.Context, cutoff time.Time) error {
	err := s.db.WithContext(ctx).
		Where("sampled_at < ?", cutoff).
		Delete(&UsageRecord{}).Error
	if err != nil {
		return fmt.Errorf("purge usage records: %w", err)
	}
	return nil
}

// interface guard
var _ HistoryStore = (*GormHistoryStore)(nil)
