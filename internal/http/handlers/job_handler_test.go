package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/rewriteguard/rewrite-backend/internal/domain"
)

type fakeJobService struct {
	total      int64
	jobs       []domain.Job
	countErr   error
	listErr    error
	lastOffset int
	lastLimit  int
}

func (f *fakeJobService) CountForUser(ctx context.Context, userID string) (int64, error) {
	return f.total, f.countErr
}

func (f *fakeJobService) ListPageForUser(ctx context.Context, userID string, offset, limit int) ([]domain.Job, error) {
	f.lastOffset, f.lastLimit = offset, limit
	return f.jobs, f.listErr
}

func TestListJobs(t *testing.T) {
	js := &fakeJobService{
		total: 45,
		jobs: []domain.Job{
			{ID: "j2", Kind: domain.CategoryParaphrase, Status: domain.JobStatusSuccess},
			{ID: "j1", Kind: domain.CategoryDetect, Status: domain.JobStatusCacheHit},
		},
	}
	h := New(&fakeRewriteService{}, nil, js)

	w := getWithUser(t, h.ListJobs, "u1", "?page=2&page_size=10")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if js.lastOffset != 10 || js.lastLimit != 10 {
		t.Fatalf("pagination args = offset %d limit %d", js.lastOffset, js.lastLimit)
	}

	var resp JobsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Jobs) != 2 || resp.Jobs[0].ID != "j2" {
		t.Fatalf("jobs unexpected: %+v", resp.Jobs)
	}
	p := resp.Pagination
	if p.Page != 2 || p.PageSize != 10 || p.TotalItems != 45 || p.TotalPages != 5 {
		t.Fatalf("pagination unexpected: %+v", p)
	}
}

func TestListJobs_EmptyHistorySkipsListing(t *testing.T) {
	js := &fakeJobService{total: 0, listErr: errors.New("should not be called")}
	h := New(&fakeRewriteService{}, nil, js)

	w := getWithUser(t, h.ListJobs, "u1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var resp JobsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Jobs == nil || len(resp.Jobs) != 0 {
		t.Fatalf("empty history should serialize as [], got %s", w.Body.String())
	}
}

func TestListJobs_ClampsPagination(t *testing.T) {
	js := &fakeJobService{total: 1, jobs: []domain.Job{{ID: "j1"}}}
	h := New(&fakeRewriteService{}, nil, js)

	// Out-of-range values fall back to sane bounds.
	w := getWithUser(t, h.ListJobs, "u1", "?page=-3&page_size=9999")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if js.lastOffset != 0 || js.lastLimit != 100 {
		t.Fatalf("clamping unexpected: offset %d limit %d", js.lastOffset, js.lastLimit)
	}
}

func TestListJobs_Errors(t *testing.T) {
	t.Run("count fails", func(t *testing.T) {
		h := New(&fakeRewriteService{}, nil, &fakeJobService{countErr: errors.New("down")})
		if w := getWithUser(t, h.ListJobs, "u1", ""); w.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d", w.Code)
		}
	})
	t.Run("list fails", func(t *testing.T) {
		h := New(&fakeRewriteService{}, nil, &fakeJobService{total: 5, listErr: errors.New("down")})
		if w := getWithUser(t, h.ListJobs, "u1", ""); w.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d", w.Code)
		}
	})
}
