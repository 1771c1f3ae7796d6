package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tempushr/tempus/internal/cache"
	"github.com/tempushr/tempus/internal/config"
	"github.com/tempushr/tempus/internal/http/middlewares"
	"github.com/tempushr/tempus/internal/jobs"
	"github.com/tempushr/tempus/internal/reports"
	"github.com/tempushr/tempus/internal/utils"
)

type ReportsStore interface {
	MonthlySummary(ctx context.Context, month string) (reports.MonthlySummary, error)
}

type ReportsHandler struct {
	store ReportsStore
	cache *cache.Cache[reports.MonthlySummary]
	queue JobEnqueuer
	log   *slog.Logger
}

func NewReportsHandler(store ReportsStore, c *cache.Cache[reports.MonthlySummary], queue JobEnqueuer, log *slog.Logger) *ReportsHandler {
	return &ReportsHandler{store: store, cache: c, queue: queue, log: log}
}

var monthRe = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// GET /reports/summary?month=YYYY-MM  (official/admin)
func (h *ReportsHandler) MonthlySummary(c *gin.Context) {
	month := c.Query("month")
	if !monthRe.MatchString(month) {
		RespondBadRequest(c, "month must be YYYY-MM", nil)
		return
	}

	key := utils.BuildMonthlySummaryCacheKey(month)

	if summary, ok := h.cache.Get(key); ok {
		RespondJSONWithETag(c, http.StatusOK, summary)
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	summary, err := h.store.MonthlySummary(cctx, month)
	if err != nil {
		if errors.Is(err, reports.ErrInvalidMonth) {
			RespondBadRequest(c, "month must be YYYY-MM", nil)
			return
		}
		RespondInternal(c, "Could not build monthly summary")
		return
	}

	h.cache.Set(key, summary)

	RespondJSONWithETag(c, http.StatusOK, summary)
}

// POST /admin/reports/export?month=YYYY-MM
//
// The export is heavy, so it goes through the job queue; the response
// hands back the job id for polling under /admin/jobs/:id.
func (h *ReportsHandler) Export(c *gin.Context) {
	month := c.Query("month")
	if !monthRe.MatchString(month) {
		RespondBadRequest(c, "month must be YYYY-MM", nil)
		return
	}

	userID, ok := middlewares.UserIDFromContext(c)
	if !ok {
		RespondUnauthorized(c, "Missing identity context")
		return
	}

	requestID, _ := c.Get(middlewares.CtxRequestID)
	reqIDStr, _ := requestID.(string)

	payload, err := jobs.EncodePayload(jobs.TypeMonthlyReportExport, jobs.MonthlyReportExportPayload{
		Month:       month,
		RequestedBy: userID,
		RequestID:   reqIDStr,
	})
	if err != nil {
		RespondInternal(c, "Could not enqueue export")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	j, err := h.queue.Create(cctx, jobs.TypeMonthlyReportExport, payload, time.Time{})
	if err != nil {
		RespondInternal(c, "Could not enqueue export")
		return
	}

	h.log.InfoContext(c.Request.Context(), "report export enqueued",
		"job_id", j.ID,
		"month", month,
		"requested_by", userID,
	)

	c.JSON(http.StatusAccepted, gin.H{
		"jobId":  j.ID,
		"status": string(j.Status),
	})
}
