// Rewrite HTTP handlers.
//
// This file exposes the core rewrite endpoints:
//   - POST /paraphrase (mode-conditioned text rewriting)
//   - POST /detect     (single-pass AI-text classification)
//
// Handlers are transport-thin: they validate and default the payload, call
// the pipeline service, and translate typed results and errors into HTTP
// responses.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rewriteguard/rewrite-backend/internal/domain"
	"github.com/rewriteguard/rewrite-backend/internal/http/middleware"
	"github.com/rewriteguard/rewrite-backend/internal/quota"
	"github.com/rewriteguard/rewrite-backend/internal/rewrite"
)

//
// Service contracts (context-aware)
//

// RewriteService defines the pipeline operations consumed by HTTP handlers.
//
// Implementations must be safe for concurrent use and honor the provided
// context for cancellation; the service owns the generation deadline.
type RewriteService interface {
	// Paraphrase runs the full rewrite lifecycle for one request.
	Paraphrase(ctx context.Context, req rewrite.Request) (*rewrite.Result, error)
	// Detect classifies text as AI- or human-written under the short bound.
	Detect(ctx context.Context, text, userID string) (*rewrite.DetectResult, error)
}

// QuotaService defines the read-side quota operations exposed over HTTP.
type QuotaService interface {
	// Usage returns the user's daily quota snapshot.
	Usage(ctx context.Context, userID string) (quota.UsageStats, error)
	// Check reports whether the user can spend the given word count today.
	Check(ctx context.Context, userID string, words int64) (quota.CheckResult, error)
}

// JobService defines job-history listing for authenticated users.
type JobService interface {
	// CountForUser returns the total job rows for pagination.
	CountForUser(ctx context.Context, userID string) (int64, error)
	// ListPageForUser returns one page of job records, newest first.
	ListPageForUser(ctx context.Context, userID string, offset, limit int) ([]domain.Job, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for rewriting, detection, quota, and
// job history. It depends on abstract service interfaces to keep transport
// concerns separate from pipeline logic.
type Handlers struct {
	svc      RewriteService
	quotaSvc QuotaService
	jobSvc   JobService
}

// New constructs a Handlers instance bound to the given services. quotaSvc
// and jobSvc may be nil when the corresponding route groups are not mounted.
func New(svc RewriteService, quotaSvc QuotaService, jobSvc JobService) *Handlers {
	return &Handlers{svc: svc, quotaSvc: quotaSvc, jobSvc: jobSvc}
}

//
// DTOs
//

// ParaphraseRequest is the JSON payload for the paraphrase endpoint.
type ParaphraseRequest struct {
	// Text is the input to rewrite (1–10000 chars).
	Text string `json:"text" binding:"required" example:"The quick brown fox jumps over the lazy dog."`
	// Mode selects the rewrite style; defaults to "standard".
	Mode string `json:"mode" example:"formal"`
	// Temperature is the sampling temperature in [0,1]; defaults to 0.7.
	// Only creative mode uses it; it is echoed for the other modes.
	Temperature *float64 `json:"temperature" example:"0.7"`
	// MaxLength bounds generated tokens per chunk (50–1024); defaults to 512.
	MaxLength *int `json:"max_length" example:"512"`
}

// ParaphraseResponse is the success payload of the paraphrase endpoint.
type ParaphraseResponse struct {
	ParaphrasedText  string  `json:"paraphrased_text"`
	Mode             string  `json:"mode" example:"formal"`
	ProcessingTimeMs float64 `json:"processing_time_ms" example:"412.07"`
	InputTokens      int     `json:"input_tokens" example:"11"`
	OutputTokens     int     `json:"output_tokens" example:"13"`
	TotalTokens      int     `json:"total_tokens" example:"24"`
	Cached           bool    `json:"cached"`
}

// DetectRequest is the JSON payload for the detect endpoint.
type DetectRequest struct {
	// Text is the input to classify (1–20000 chars).
	Text string `json:"text" binding:"required" example:"It was a bright cold day in April."`
}

// DetectResponse is the success payload of the detect endpoint.
type DetectResponse struct {
	Label       string  `json:"label" enums:"ai,human" example:"human"`
	Probability float64 `json:"probability" example:"0.99"`
}

//
// Handlers
//

// Paraphrase godoc
// @ID          paraphrase
// @Summary     Rewrite text in a selected style
// @Description Chunks the input, generates a rewrite per chunk, and
// @Description reassembles a single coherent text. Identical requests are
// @Description served from the result cache. Authenticated callers are
// @Description gated by their daily word quota.
// @Tags        rewrite
// @Accept      json
// @Produce     json
// @Param       payload body ParaphraseRequest true "text and generation parameters"
// @Success     200 {object} ParaphraseResponse
// @Failure     400 {object} ErrorResponse
// @Failure     429 {object} QuotaErrorResponse
// @Failure     500 {object} ErrorResponse
// @Failure     504 {object} ErrorResponse
// @Router      /paraphrase [post]
func (h *Handlers) Paraphrase(c *gin.Context) {
	var body ParaphraseRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid request payload")
		return
	}

	mode, err := rewrite.ParseMode(body.Mode)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}

	req := rewrite.Request{
		Text:        body.Text,
		Mode:        mode,
		Temperature: rewrite.DefaultTemperature,
		MaxLength:   rewrite.DefaultMaxLength,
		UserID:      middleware.UserID(c),
	}
	if body.Temperature != nil {
		req.Temperature = *body.Temperature
	}
	if body.MaxLength != nil {
		req.MaxLength = *body.MaxLength
	}

	res, err := h.svc.Paraphrase(c.Request.Context(), req)
	if err != nil {
		h.failRewrite(c, err, "paraphrasing")
		return
	}

	ok(c, http.StatusOK, ParaphraseResponse{
		ParaphrasedText:  res.ParaphrasedText,
		Mode:             string(res.Mode),
		ProcessingTimeMs: res.ProcessingTimeMs,
		InputTokens:      res.InputTokens,
		OutputTokens:     res.OutputTokens,
		TotalTokens:      res.TotalTokens,
		Cached:           res.Cached,
	})
}

// Detect godoc
// @ID          detect
// @Summary     Classify text as AI- or human-written
// @Tags        rewrite
// @Accept      json
// @Produce     json
// @Param       payload body DetectRequest true "text to classify"
// @Success     200 {object} DetectResponse
// @Failure     400 {object} ErrorResponse
// @Failure     429 {object} QuotaErrorResponse
// @Failure     500 {object} ErrorResponse
// @Failure     504 {object} ErrorResponse
// @Router      /detect [post]
func (h *Handlers) Detect(c *gin.Context) {
	var body DetectRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid request payload")
		return
	}

	res, err := h.svc.Detect(c.Request.Context(), body.Text, middleware.UserID(c))
	if err != nil {
		h.failRewrite(c, err, "detection")
		return
	}

	ok(c, http.StatusOK, DetectResponse{Label: res.Label, Probability: res.Probability})
}

// failRewrite maps pipeline errors to HTTP responses. Validation and quota
// failures are surfaced precisely; everything unexpected becomes a generic
// 500 with full detail in the logs only.
func (h *Handlers) failRewrite(c *gin.Context, err error, op string) {
	var exceeded *quota.ExceededError
	switch {
	case errors.As(err, &exceeded):
		failQuota(c, exceeded)
	case errors.Is(err, rewrite.ErrEmptyText),
		errors.Is(err, rewrite.ErrTextTooLong),
		errors.Is(err, rewrite.ErrInvalidTemperature),
		errors.Is(err, rewrite.ErrInvalidMaxLength):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, rewrite.ErrTimeout):
		fail(c, http.StatusGatewayTimeout, ErrCodeTimeout, "request timeout: "+op+" took too long to complete")
	default:
		lg := middleware.LoggerFrom(c)
		lg.Error().Err(err).Msg(op + " failed")
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error during "+op)
	}
}
