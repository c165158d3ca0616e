// Job-history HTTP handlers.
//
// This file exposes GET /jobs: the authenticated caller's paginated job
// history, newest first. Job records are immutable; this is a read-only view
// for observability and billing reconciliation.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rewriteguard/rewrite-backend/internal/domain"
	"github.com/rewriteguard/rewrite-backend/internal/http/middleware"
	"github.com/rewriteguard/rewrite-backend/internal/utils"
)

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int64 `json:"total_pages"`
}

// JobsResponse is the payload of the job-history endpoint.
type JobsResponse struct {
	Jobs       []domain.Job `json:"jobs"`
	Pagination Pagination   `json:"pagination"`
}

// ListJobs godoc
// @ID          listJobs
// @Summary     List the caller's job history (paginated)
// @Tags        jobs
// @Produce     json
// @Param       page      query int false "page number (1-based)" default(1)
// @Param       page_size query int false "items per page" default(20) maximum(100)
// @Success     200 {object} JobsResponse
// @Failure     401 {object} ErrorResponse
// @Failure     500 {object} ErrorResponse
// @Security    BearerAuth
// @Router      /jobs [get]
func (h *Handlers) ListJobs(c *gin.Context) {
	userID := middleware.UserID(c)
	page, pageSize := clampPagination(c)

	ctx := c.Request.Context()
	total, err := h.jobSvc.CountForUser(ctx, userID)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list jobs")
		return
	}

	jobs := []domain.Job{}
	if total > 0 {
		jobs, err = h.jobSvc.ListPageForUser(ctx, userID, (page-1)*pageSize, pageSize)
		if err != nil {
			fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list jobs")
			return
		}
	}

	totalPages := (total + int64(pageSize) - 1) / int64(pageSize)
	ok(c, http.StatusOK, JobsResponse{
		Jobs: jobs,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			TotalItems: total,
			TotalPages: totalPages,
		},
	})
}

// clampPagination parses page/page_size from query parameters, applying sane
// defaults and caps.
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}
