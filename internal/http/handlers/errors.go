// Package handlers defines HTTP-layer error codes used across all API
// endpoints. Codes are lowercase snake_case, stable, and machine-readable;
// they supplement the HTTP status so clients can branch programmatically.
// Every error response carries exactly one of these codes (see response.go).
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeNotFound         = "not_found"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeQuotaExceeded = "quota_exceeded"
	ErrCodeTimeout       = "timeout"
	ErrCodeListFailed    = "list_failed"
)
