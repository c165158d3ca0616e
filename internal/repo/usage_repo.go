// Package repo implements the data persistence layer, backed by GORM. This
// file provides the durable quota ledger. Increments run as single SQL
// upserts with an additive assignment, so concurrent trackers for the same
// (user, day, category) key never lose updates.
package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rewriteguard/rewrite-backend/internal/domain"
)

// UsageLedger is the GORM-backed quota ledger. It satisfies quota.Ledger.
type UsageLedger struct {
	db *gorm.DB
}

// NewUsageLedger returns a ledger over db.
func NewUsageLedger(db *gorm.DB) *UsageLedger {
	return &UsageLedger{db: db}
}

// Totals returns the per-category word counts for (user, day). Categories
// without a row read as zero.
func (l *UsageLedger) Totals(ctx context.Context, userID, day string) (map[string]int64, error) {
	var rows []domain.UsageEntry
	err := l.db.WithContext(ctx).
		Where("user_id = ? AND day = ?", userID, day).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Category] = r.Words
	}
	return out, nil
}

// Add atomically increments (user, day, category) by words, inserting the
// row on first use. The increment happens inside the database, not
// read-modify-write in Go.
func (l *UsageLedger) Add(ctx context.Context, userID, day, category string, words int64) error {
	return l.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "day"}, {Name: "category"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"words": gorm.Expr("words + ?", words),
			}),
		}).
		Create(&domain.UsageEntry{
			UserID:   userID,
			Day:      day,
			Category: category,
			Words:    words,
		}).Error
}

// Reset zeroes all categories for (user, day).
func (l *UsageLedger) Reset(ctx context.Context, userID, day string) error {
	return l.db.WithContext(ctx).
		Model(&domain.UsageEntry{}).
		Where("user_id = ? AND day = ?", userID, day).
		Update("words", 0).Error
}
