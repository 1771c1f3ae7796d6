package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tempushr/tempus/internal/config"
	"github.com/tempushr/tempus/internal/domain/correction"
	"github.com/tempushr/tempus/internal/domain/timeentry"
	"github.com/tempushr/tempus/internal/http/middlewares"
	"github.com/tempushr/tempus/internal/jobs"
	"github.com/tempushr/tempus/internal/utils"
)

type CorrectionsStore interface {
	Create(ctx context.Context, c correction.Correction) (correction.Correction, error)
	GetByID(ctx context.Context, id string) (correction.Correction, error)
	List(ctx context.Context, filter correction.ListFilter) ([]correction.Correction, error)
	Decide(ctx context.Context, id, reviewerID string, approve bool, note string) (correction.Correction, error)
}

// EntryLookup verifies the target entry before accepting a correction.
type EntryLookup interface {
	GetByID(ctx context.Context, id string) (timeentry.TimeEntry, error)
}

type CorrectionsHandler struct {
	store   CorrectionsStore
	entries EntryLookup
	queue   JobEnqueuer
	log     *slog.Logger
}

func NewCorrectionsHandler(store CorrectionsStore, entries EntryLookup, queue JobEnqueuer, log *slog.Logger) *CorrectionsHandler {
	return &CorrectionsHandler{store: store, entries: entries, queue: queue, log: log}
}

// POST /corrections
func (h *CorrectionsHandler) Create(c *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(c)
	if !ok {
		RespondUnauthorized(c, "Missing identity context")
		return
	}

	var req correction.CreateRequest
	if !BindJSON(c, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	entry, err := h.entries.GetByID(cctx, req.EntryID)
	if err != nil {
		if errors.Is(err, timeentry.ErrNotFound) {
			RespondNotFound(c, "Time entry not found")
			return
		}
		RespondInternal(c, "Could not create correction")
		return
	}

	// only your own, closed entries can be corrected
	if entry.UserID != userID {
		RespondNotFound(c, "Time entry not found")
		return
	}
	if entry.Open() {
		RespondConflict(c, "entry_still_open", "Clock out before requesting a correction")
		return
	}

	cr, err := correction.NewFromCreateRequest(userID, req)
	if err != nil {
		if errors.Is(err, correction.ErrInvalidTimes) {
			RespondBadRequest(c, "proposedClockOut must be after proposedClockIn", nil)
			return
		}
		RespondBadRequest(c, "Invalid correction request", nil)
		return
	}

	created, err := h.store.Create(cctx, cr)
	if err != nil {
		RespondInternal(c, "Could not create correction")
		return
	}

	c.JSON(http.StatusCreated, created)
}

// GET /corrections?status=...&limit=...
func (h *CorrectionsHandler) List(c *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(c)
	if !ok {
		RespondUnauthorized(c, "Missing identity context")
		return
	}

	limit := parseIntDefault(c.Query("limit"), 20)
	if limit < 1 || limit > 100 {
		RespondBadRequest(c, "limit must be between 1 and 100", nil)
		return
	}

	filter := correction.ListFilter{Limit: limit}

	if canReview(c) {
		if qID := c.Query("userId"); qID != "" {
			if !utils.IsUUID(qID) {
				RespondBadRequest(c, "userId must be a UUID", nil)
				return
			}
			filter.UserID = &qID
		}
	} else {
		filter.UserID = &userID
	}

	if s := c.Query("status"); s != "" {
		st := correction.Status(s)
		if st != correction.StatusPending && st != correction.StatusApproved && st != correction.StatusRejected {
			RespondBadRequest(c, "status must be pending, approved or rejected", nil)
			return
		}
		filter.Status = &st
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	items, err := h.store.List(cctx, filter)
	if err != nil {
		RespondInternal(c, "Could not list corrections")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"limit": limit,
		"count": len(items),
		"items": items,
	})
}

// GET /corrections/:id
func (h *CorrectionsHandler) GetByID(c *gin.Context) {
	id := c.Param("id")
	if !utils.IsUUID(id) {
		RespondBadRequest(c, "invalid id", nil)
		return
	}

	userID, ok := middlewares.UserIDFromContext(c)
	if !ok {
		RespondUnauthorized(c, "Missing identity context")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	cr, err := h.store.GetByID(cctx, id)
	if err != nil {
		if errors.Is(err, correction.ErrNotFound) {
			RespondNotFound(c, "Correction not found")
			return
		}
		RespondInternal(c, "Could not fetch correction")
		return
	}

	if cr.UserID != userID && !canReview(c) {
		RespondNotFound(c, "Correction not found")
		return
	}

	c.JSON(http.StatusOK, cr)
}

// POST /corrections/:id/decision  (official/admin only)
//
// Approval atomically rewrites the target entry's times; the repo does
// both in one transaction.
func (h *CorrectionsHandler) Decide(c *gin.Context) {
	id := c.Param("id")
	if !utils.IsUUID(id) {
		RespondBadRequest(c, "invalid id", nil)
		return
	}

	reviewerID, ok := middlewares.UserIDFromContext(c)
	if !ok {
		RespondUnauthorized(c, "Missing identity context")
		return
	}

	var req correction.DecisionRequest
	if !BindJSON(c, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	decided, err := h.store.Decide(cctx, id, reviewerID, req.Approve, req.Note)
	if err != nil {
		switch {
		case errors.Is(err, correction.ErrNotFound):
			RespondNotFound(c, "Correction not found")
		case errors.Is(err, correction.ErrNotPending):
			RespondConflict(c, "correction_not_pending", "Correction was already decided")
		default:
			RespondInternal(c, "Could not decide correction")
		}
		return
	}

	h.enqueueDecisionNotice(c, decided)

	c.JSON(http.StatusOK, decided)
}

func (h *CorrectionsHandler) enqueueDecisionNotice(c *gin.Context, cr correction.Correction) {
	payload, err := jobs.EncodePayload(jobs.TypeCorrectionDecisionNotice, jobs.CorrectionDecisionNoticePayload{
		CorrectionID: cr.ID,
		UserID:       cr.UserID,
		Approved:     cr.Status == correction.StatusApproved,
	})
	if err != nil {
		h.log.ErrorContext(c.Request.Context(), "encode correction notice payload", "error", err)
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	if _, err := h.queue.Create(cctx, jobs.TypeCorrectionDecisionNotice, payload, time.Time{}); err != nil {
		h.log.ErrorContext(c.Request.Context(), "enqueue correction notice", "correction_id", cr.ID, "error", err)
	}
}
