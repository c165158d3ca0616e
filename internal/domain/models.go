// Package domain defines the persistence models for usage accounting, cached
// rewrite results, and job records. These types are mapped with GORM and form
// the core data layer of the rewrite backend.
package domain

import (
	"time"
)

// Usage categories tracked against a user's daily word quota.
const (
	CategoryDetect     = "detect"
	CategoryParaphrase = "paraphrase"
)

// Job outcome statuses. Every request lifecycle terminates in exactly one of
// these and produces exactly one Job row.
const (
	JobStatusSuccess  = "success"
	JobStatusCacheHit = "cache_hit"
	JobStatusTimeout  = "timeout"
	JobStatusError    = "error"
)

// UsageEntry is one row of the per-user, per-day, per-category word ledger.
// Words is monotonically non-decreasing within a day except for an explicit
// reset, and is never negative.
//
// Fields:
//   - UserID: owner of the ledger row; part of the unique key.
//   - Day: calendar date in ISO format (YYYY-MM-DD); part of the unique key.
//   - Category: usage category ("detect" or "paraphrase"); part of the unique key.
//   - Words: words consumed so far for this (user, day, category).
type UsageEntry struct {
	UserID    string    `json:"user_id"  gorm:"type:varchar(64);not null;uniqueIndex:ux_usage_user_day_cat,priority:1"`
	Day       string    `json:"day"      gorm:"type:char(10);not null;uniqueIndex:ux_usage_user_day_cat,priority:2"`
	Category  string    `json:"category" gorm:"type:varchar(16);not null;uniqueIndex:ux_usage_user_day_cat,priority:3"`
	Words     int64     `json:"words"    gorm:"not null;default:0;check:words >= 0"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for UsageEntry.
func (UsageEntry) TableName() string { return "usage_ledger" }

// CacheEntry is a persisted rewrite result addressed by request fingerprint.
// The cache gateway exclusively owns the lifecycle of these rows: they are
// created on write-through and considered gone once ExpiresAt has passed.
//
// Fields:
//   - Key: content-addressed fingerprint of the normalized request fields.
//   - Payload: serialized rewrite result (JSON blob; opaque to this layer).
//   - CreatedAt / ExpiresAt: TTL window; reads past ExpiresAt report absence.
type CacheEntry struct {
	Key       string    `json:"key"        gorm:"type:varchar(128);primaryKey"`
	Payload   []byte    `json:"-"          gorm:"type:blob;not null"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at" gorm:"index"`
}

// TableName returns the database table name for CacheEntry.
func (CacheEntry) TableName() string { return "cache_entries" }

// Job is an immutable record of one request lifecycle: outcome, latency, and
// token usage. Rows are created once per terminal outcome and never mutated;
// they exist for observability and billing reconciliation only.
//
// Fields:
//   - ID: UUID primary key.
//   - UserID: authenticated caller, or empty for anonymous requests.
//   - Kind: operation kind ("detect" or "paraphrase").
//   - Mode: rewrite mode used (empty for detect jobs).
//   - Status: terminal outcome (success, cache_hit, timeout, error).
//   - Degraded: true when the generation capability was unavailable and the
//     deterministic fallback transform produced the output.
//   - InputChars / OutputChars: character counts of input and final output.
//   - InputTokens / OutputTokens / TotalTokens: token accounting for billing.
//   - LatencyMs: end-to-end processing time in milliseconds.
type Job struct {
	ID           string    `json:"id"            gorm:"type:char(36);primaryKey"`
	UserID       string    `json:"user_id"       gorm:"type:varchar(64);index:idx_jobs_user,priority:1"`
	Kind         string    `json:"kind"          gorm:"type:varchar(16);not null"`
	Mode         string    `json:"mode"          gorm:"type:varchar(16)"`
	Status       string    `json:"status"        gorm:"type:varchar(16);not null;check:status IN ('success','cache_hit','timeout','error')"`
	Degraded     bool      `json:"degraded"      gorm:"not null;default:false"`
	InputChars   int       `json:"input_chars"   gorm:"not null;default:0"`
	OutputChars  int       `json:"output_chars"  gorm:"not null;default:0"`
	InputTokens  int       `json:"input_tokens"  gorm:"not null;default:0"`
	OutputTokens int       `json:"output_tokens" gorm:"not null;default:0"`
	TotalTokens  int       `json:"total_tokens"  gorm:"not null;default:0"`
	LatencyMs    float64   `json:"latency_ms"    gorm:"not null;default:0"`
	CreatedAt    time.Time `json:"created_at"    gorm:"index:idx_jobs_user,priority:2"`
}

// TableName returns the database table name for Job.
func (Job) TableName() string { return "jobs" }
