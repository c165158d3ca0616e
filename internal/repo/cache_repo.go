// Package repo implements the data persistence layer, backed by GORM. This
// file provides the durable cache store behind the cache gateway. All
// failures are swallowed into miss/false results: cache availability is never
// allowed to fail a request.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rewriteguard/rewrite-backend/internal/domain"
)

// CacheStore is the GORM-backed key-value store with TTL. It satisfies
// cache.Store. Writes upsert whole rows, so concurrent identical keys are
// safe and last write wins.
type CacheStore struct {
	db *gorm.DB

	// now is swappable for expiry tests.
	now func() time.Time
}

// NewCacheStore returns a CacheStore over db.
func NewCacheStore(db *gorm.DB) *CacheStore {
	return &CacheStore{db: db, now: time.Now}
}

// Get returns the unexpired payload for key. Expired rows are deleted
// opportunistically and read as absent, as does any store error.
func (s *CacheStore) Get(ctx context.Context, key string) ([]byte, bool) {
	var row domain.CacheEntry
	err := s.db.WithContext(ctx).First(&row, "key = ?", key).Error
	if err != nil {
		return nil, false
	}
	if s.now().UTC().After(row.ExpiresAt) {
		s.db.WithContext(ctx).Delete(&domain.CacheEntry{}, "key = ?", key)
		return nil, false
	}
	return row.Payload, true
}

// Set upserts the payload under key with the given TTL, reporting success.
func (s *CacheStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	now := s.now().UTC()
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			UpdateAll: true,
		}).
		Create(&domain.CacheEntry{
			Key:       key,
			Payload:   value,
			CreatedAt: now,
			ExpiresAt: now.Add(ttl),
		}).Error
	return err == nil
}

// PurgeExpired removes all rows past their expiry. Intended for a periodic
// janitor; reads already treat expired rows as absent.
func (s *CacheStore) PurgeExpired(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("expires_at <= ?", s.now().UTC()).
		Delete(&domain.CacheEntry{})
	return res.RowsAffected, res.Error
}
