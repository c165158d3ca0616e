// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the standard response utilities: a structured error
// envelope with a stable machine-readable code, and helpers that keep success
// and failure shapes uniform across endpoints. Server-side (5xx) failures are
// logged with the request-scoped logger before the envelope is written.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rewriteguard/rewrite-backend/internal/http/middleware"
	"github.com/rewriteguard/rewrite-backend/internal/quota"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// RequestID correlates server logs and client errors.
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Code is a stable, machine-readable code (see errors.go constants).
	Code string `json:"code" example:"bad_request"`
	// Message is a human-readable description, safe to show to users.
	Message string `json:"message" example:"text is empty"`
}

// QuotaErrorResponse is the envelope for quota denials. It carries the full
// policy detail so clients can render usage and upsell state without another
// round trip.
type QuotaErrorResponse struct {
	RequestID        string `json:"request_id,omitempty"`
	Code             string `json:"code" example:"quota_exceeded"`
	Message          string `json:"message"`
	PlanType         string `json:"plan_type" example:"free"`
	DailyLimit       int64  `json:"daily_limit" example:"1000"`
	WordsUsed        int64  `json:"words_used"`
	WordsRequested   int64  `json:"words_requested"`
	WordsRemaining   int64  `json:"words_remaining"`
	UpgradeAvailable bool   `json:"upgrade_available"`
}

// fail aborts the request with a structured error envelope. 5xx responses
// are additionally logged with request context.
func fail(c *gin.Context, status int, code, msg string) {
	resp := ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	}
	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail, for router-level fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// failQuota aborts with 429 and the quota denial detail.
func failQuota(c *gin.Context, e *quota.ExceededError) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, QuotaErrorResponse{
		RequestID:        c.Writer.Header().Get("X-Request-ID"),
		Code:             ErrCodeQuotaExceeded,
		Message:          e.Error(),
		PlanType:         string(e.Plan),
		DailyLimit:       e.DailyLimit,
		WordsUsed:        e.WordsUsed,
		WordsRequested:   e.WordsRequested,
		WordsRemaining:   e.WordsRemaining,
		UpgradeAvailable: e.Plan != quota.PlanPremium,
	})
}

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}
