package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tempushr/tempus/internal/config"
	"github.com/tempushr/tempus/internal/jobs"
	"github.com/tempushr/tempus/internal/utils"
)

type AdminJobsRepo interface {
	ListCursor(
		ctx context.Context,
		status *string,
		limit int,
		afterUpdatedAt time.Time,
		afterID string,
	) (items []jobs.Job, nextCursor *string, hasMore bool, err error)
	GetByID(ctx context.Context, id string) (jobs.Job, error)
	Retry(ctx context.Context, id string) error
}

type AdminJobsHandler struct {
	repo AdminJobsRepo
}

func NewAdminJobsHandler(repo AdminJobsRepo) *AdminJobsHandler {
	return &AdminJobsHandler{repo: repo}
}

// GET /admin/jobs?status=failed&limit=50&cursor=...
func (h *AdminJobsHandler) List(c *gin.Context) {
	limit := parseIntDefault(c.Query("limit"), 20)
	if limit < 1 || limit > 100 {
		RespondBadRequest(c, "limit must be between 1 and 100", nil)
		return
	}

	var statusPtr *string
	if s := c.Query("status"); s != "" {
		if !jobs.Status(s).IsValid() {
			RespondBadRequest(c, "status must be pending, processing, done or failed", nil)
			return
		}
		statusPtr = &s
	}

	afterUpdatedAt := cursorMaxTime
	afterID := cursorMaxID

	if cursor := c.Query("cursor"); cursor != "" {
		cur, err := utils.DecodeJobCursor(cursor)
		if err != nil {
			RespondBadRequest(c, "cursor is invalid", nil)
			return
		}
		afterUpdatedAt = cur.UpdatedAt
		afterID = cur.ID
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	items, next, hasMore, err := h.repo.ListCursor(cctx, statusPtr, limit, afterUpdatedAt, afterID)
	if err != nil {
		RespondInternal(c, "Could not list jobs")
		return
	}

	RespondJSONWithETag(c, http.StatusOK, gin.H{
		"limit":      limit,
		"count":      len(items),
		"items":      items,
		"hasMore":    hasMore,
		"nextCursor": next,
	})
}

// GET /admin/jobs/:id
func (h *AdminJobsHandler) GetByID(c *gin.Context) {
	id := c.Param("id")
	if !utils.IsUUID(id) {
		RespondBadRequest(c, "invalid id", nil)
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	j, err := h.repo.GetByID(cctx, id)
	if err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			RespondNotFound(c, "Job not found")
			return
		}
		RespondInternal(c, "Could not fetch job")
		return
	}

	RespondJSONWithETag(c, http.StatusOK, j)
}

// POST /admin/jobs/:id/retry
func (h *AdminJobsHandler) Retry(c *gin.Context) {
	id := c.Param("id")
	if !utils.IsUUID(id) {
		RespondBadRequest(c, "invalid id", nil)
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	if err := h.repo.Retry(cctx, id); err != nil {
		switch {
		case errors.Is(err, jobs.ErrJobNotFound):
			RespondNotFound(c, "Job not found")
		case errors.Is(err, jobs.ErrJobNotFailed):
			RespondConflict(c, "job_not_failed", "Only failed jobs can be retried")
		default:
			RespondInternal(c, "Could not retry job")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"jobId":  id,
		"status": "pending",
	})
}
