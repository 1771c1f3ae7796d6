package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tempushr/tempus/internal/config"
	"github.com/tempushr/tempus/internal/domain/absence"
	"github.com/tempushr/tempus/internal/http/middlewares"
	"github.com/tempushr/tempus/internal/jobs"
	"github.com/tempushr/tempus/internal/utils"
)

type AbsencesStore interface {
	Create(ctx context.Context, a absence.Absence) (absence.Absence, error)
	GetByID(ctx context.Context, id string) (absence.Absence, error)
	ListCursor(
		ctx context.Context,
		filter absence.ListFilter,
		afterCreatedAt time.Time,
		afterID string,
	) (items []absence.Absence, nextCursor *string, hasMore bool, err error)
	Decide(ctx context.Context, id, reviewerID string, approve bool, note string) (absence.Absence, error)
}

// JobEnqueuer decouples handlers from the queue implementation.
type JobEnqueuer interface {
	Create(ctx context.Context, t jobs.Type, payload []byte, runAt time.Time) (jobs.Job, error)
}

type AbsencesHandler struct {
	store AbsencesStore
	queue JobEnqueuer
	log   *slog.Logger
}

func NewAbsencesHandler(store AbsencesStore, queue JobEnqueuer, log *slog.Logger) *AbsencesHandler {
	return &AbsencesHandler{store: store, queue: queue, log: log}
}

// POST /absences
func (h *AbsencesHandler) Create(c *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(c)
	if !ok {
		RespondUnauthorized(c, "Missing identity context")
		return
	}

	var req absence.CreateRequest
	if !BindJSON(c, &req) {
		return
	}

	a, err := absence.NewFromCreateRequest(userID, req)
	if err != nil {
		if errors.Is(err, absence.ErrInvalidRange) {
			RespondBadRequest(c, "endDate must not precede startDate", nil)
			return
		}
		RespondBadRequest(c, "Invalid absence request", nil)
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	created, err := h.store.Create(cctx, a)
	if err != nil {
		RespondInternal(c, "Could not create absence request")
		return
	}

	c.JSON(http.StatusCreated, created)
}

// GET /absences?status=...&limit=...&cursor=...
//
// Employees see their own requests; reviewers may pass ?userId= or
// omit it to see everyone's.
func (h *AbsencesHandler) List(c *gin.Context) {
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

	filter := absence.ListFilter{Limit: limit}

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
		st := absence.Status(s)
		if !st.IsValid() {
			RespondBadRequest(c, "status must be pending, approved or rejected", nil)
			return
		}
		filter.Status = &st
	}

	afterCreatedAt := cursorMaxTime
	afterID := cursorMaxID

	if cursor := c.Query("cursor"); cursor != "" {
		cur, err := utils.DecodeAbsenceCursor(cursor)
		if err != nil {
			RespondBadRequest(c, "cursor is invalid", nil)
			return
		}
		afterCreatedAt = cur.CreatedAt
		afterID = cur.ID
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	items, next, hasMore, err := h.store.ListCursor(cctx, filter, afterCreatedAt, afterID)
	if err != nil {
		RespondInternal(c, "Could not list absences")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"limit":      limit,
		"count":      len(items),
		"items":      items,
		"hasMore":    hasMore,
		"nextCursor": next,
	})
}

// GET /absences/:id
func (h *AbsencesHandler) GetByID(c *gin.Context) {
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

	a, err := h.store.GetByID(cctx, id)
	if err != nil {
		if errors.Is(err, absence.ErrNotFound) {
			RespondNotFound(c, "Absence not found")
			return
		}
		RespondInternal(c, "Could not fetch absence")
		return
	}

	if a.UserID != userID && !canReview(c) {
		RespondNotFound(c, "Absence not found")
		return
	}

	c.JSON(http.StatusOK, a)
}

// POST /absences/:id/decision  (official/admin only, routed behind the
// role guard)
func (h *AbsencesHandler) Decide(c *gin.Context) {
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

	var req absence.DecisionRequest
	if !BindJSON(c, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	decided, err := h.store.Decide(cctx, id, reviewerID, req.Approve, req.Note)
	if err != nil {
		switch {
		case errors.Is(err, absence.ErrNotFound):
			RespondNotFound(c, "Absence not found")
		case errors.Is(err, absence.ErrNotPending):
			RespondConflict(c, "absence_not_pending", "Absence was already decided")
		default:
			RespondInternal(c, "Could not decide absence")
		}
		return
	}

	h.enqueueDecisionNotice(c, decided)

	c.JSON(http.StatusOK, decided)
}

// Notification is best effort: the decision is already committed, a
// queue hiccup must not turn it into a 5xx.
func (h *AbsencesHandler) enqueueDecisionNotice(c *gin.Context, a absence.Absence) {
	payload, err := jobs.EncodePayload(jobs.TypeAbsenceDecisionNotice, jobs.AbsenceDecisionNoticePayload{
		AbsenceID: a.ID,
		UserID:    a.UserID,
		Approved:  a.Status == absence.StatusApproved,
	})
	if err != nil {
		h.log.ErrorContext(c.Request.Context(), "encode absence notice payload", "error", err)
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	if _, err := h.queue.Create(cctx, jobs.TypeAbsenceDecisionNotice, payload, time.Time{}); err != nil {
		h.log.ErrorContext(c.Request.Context(), "enqueue absence notice", "absence_id", a.ID, "error", err)
	}
}
