// Quota HTTP handlers.
//
// This file exposes the read side of the quota gate:
//   - GET /quota/usage  (today's snapshot for the caller)
//   - GET /quota/check  (would a given word count fit)
//   - GET /quota/plans  (available tiers and limits)
//
// The usage and check routes require an authenticated caller; plan listing
// is public.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rewriteguard/rewrite-backend/internal/http/middleware"
	"github.com/rewriteguard/rewrite-backend/internal/quota"
	"github.com/rewriteguard/rewrite-backend/internal/utils"
)

// PlanInfo describes one plan tier in the public plan listing.
type PlanInfo struct {
	Name       string `json:"name" example:"premium"`
	DailyLimit int64  `json:"daily_limit" example:"10000"`
}

// PlansResponse is the payload of the plan listing endpoint.
type PlansResponse struct {
	Plans []PlanInfo `json:"plans"`
}

// GetUsage godoc
// @ID          getQuotaUsage
// @Summary     Get today's usage snapshot
// @Tags        quota
// @Produce     json
// @Success     200 {object} quota.UsageStats
// @Failure     401 {object} ErrorResponse
// @Failure     500 {object} ErrorResponse
// @Security    BearerAuth
// @Router      /quota/usage [get]
func (h *Handlers) GetUsage(c *gin.Context) {
	stats, err := h.quotaSvc.Usage(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not read usage")
		return
	}
	ok(c, http.StatusOK, stats)
}

// CheckQuota godoc
// @ID          checkQuota
// @Summary     Check whether a word count fits today's remaining quota
// @Tags        quota
// @Produce     json
// @Param       words query int true "word count to check" minimum(0)
// @Success     200 {object} quota.CheckResult
// @Failure     400 {object} ErrorResponse
// @Failure     401 {object} ErrorResponse
// @Failure     500 {object} ErrorResponse
// @Security    BearerAuth
// @Router      /quota/check [get]
func (h *Handlers) CheckQuota(c *gin.Context) {
	words := utils.AtoiDefault(c.Query("words"), -1)
	if words < 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "words must be a non-negative integer")
		return
	}
	res, err := h.quotaSvc.Check(c.Request.Context(), middleware.UserID(c), int64(words))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not check quota")
		return
	}
	ok(c, http.StatusOK, res)
}

// GetPlans godoc
// @ID          getPlans
// @Summary     List available plan tiers and their daily limits
// @Tags        quota
// @Produce     json
// @Success     200 {object} PlansResponse
// @Router      /quota/plans [get]
func (h *Handlers) GetPlans(c *gin.Context) {
	ok(c, http.StatusOK, PlansResponse{
		Plans: []PlanInfo{
			{Name: string(quota.PlanFree), DailyLimit: quota.PlanLimits[quota.PlanFree]},
			{Name: string(quota.PlanPremium), DailyLimit: quota.PlanLimits[quota.PlanPremium]},
		},
	})
}
