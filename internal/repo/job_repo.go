// Package repo implements the data persistence layer, backed by GORM. This
// file provides insert-only persistence and paginated listing for job
// records. Rows are never updated after creation.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/rewriteguard/rewrite-backend/internal/domain"
)

// JobRepo persists and lists immutable job records.
type JobRepo struct {
	db *gorm.DB
}

// NewJobRepo returns a JobRepo over db.
func NewJobRepo(db *gorm.DB) *JobRepo {
	return &JobRepo{db: db}
}

// Record inserts one job row. It satisfies rewrite.JobRecorder.
func (r *JobRepo) Record(ctx context.Context, job domain.Job) error {
	return r.db.WithContext(ctx).Create(&job).Error
}

// CountForUser returns the total job rows for a user.
func (r *JobRepo) CountForUser(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&domain.Job{}).
		Where("user_id = ?", userID).
		Count(&n).Error
	return n, err
}

// ListPageForUser returns one page of a user's job history, newest first.
func (r *JobRepo) ListPageForUser(ctx context.Context, userID string, offset, limit int) ([]domain.Job, error) {
	var jobs []domain.Job
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&jobs).Error
	return jobs, err
}
