package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tempushr/tempus/internal/config"
	"github.com/tempushr/tempus/internal/domain/timeentry"
	"github.com/tempushr/tempus/internal/domain/user"
	"github.com/tempushr/tempus/internal/http/middlewares"
	"github.com/tempushr/tempus/internal/utils"
)

type TimeEntriesStore interface {
	ClockIn(ctx context.Context, e timeentry.TimeEntry) (timeentry.TimeEntry, error)
	ClockOut(ctx context.Context, userID string, at time.Time, note string) (timeentry.TimeEntry, error)
	GetByID(ctx context.Context, id string) (timeentry.TimeEntry, error)
	ListCursor(
		ctx context.Context,
		filter timeentry.ListFilter,
		afterClockIn time.Time,
		afterID string,
	) (items []timeentry.TimeEntry, nextCursor *string, hasMore bool, err error)
}

type TimeEntriesHandler struct {
	store TimeEntriesStore
}

func NewTimeEntriesHandler(store TimeEntriesStore) *TimeEntriesHandler {
	return &TimeEntriesHandler{store: store}
}

func parseIntDefault(s string, fallback int) int {
	if s == "" {
		return fallback
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}

	return n
}

// DESC first-page sentinel: "far future" + max UUID
var (
	cursorMaxTime = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)
	cursorMaxID   = "ffffffff-ffff-ffff-ffff-ffffffffffff"
)

// canReview reports whether the caller may act on other users' records.
func canReview(c *gin.Context) bool {
	role, _ := middlewares.RoleFromContext(c)
	return role == user.RoleOfficial || middlewares.IsAdminFromContext(c)
}

// POST /time-entries/clock-in
func (h *TimeEntriesHandler) ClockIn(c *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(c)
	if !ok {
		RespondUnauthorized(c, "Missing identity context")
		return
	}

	var req timeentry.ClockInRequest
	if !BindJSON(c, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	entry, err := h.store.ClockIn(cctx, timeentry.NewOpen(userID, req.Note, time.Now().UTC()))
	if err != nil {
		if errors.Is(err, timeentry.ErrAlreadyOpen) {
			RespondConflict(c, "entry_already_open", "An open time entry already exists; clock out first")
			return
		}
		RespondInternal(c, "Could not clock in")
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// POST /time-entries/clock-out
func (h *TimeEntriesHandler) ClockOut(c *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(c)
	if !ok {
		RespondUnauthorized(c, "Missing identity context")
		return
	}

	var req timeentry.ClockOutRequest
	if !BindJSON(c, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	entry, err := h.store.ClockOut(cctx, userID, time.Now().UTC(), req.Note)
	if err != nil {
		if errors.Is(err, timeentry.ErrNoOpenEntry) {
			RespondConflict(c, "no_open_entry", "No open time entry to close")
			return
		}
		RespondInternal(c, "Could not clock out")
		return
	}

	c.JSON(http.StatusOK, entry)
}

// GET /time-entries?from=...&to=...&limit=...&cursor=...
//
// Employees see their own entries. Officials and admins may pass
// ?userId= to inspect someone else's.
func (h *TimeEntriesHandler) List(c *gin.Context) {
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

	targetID := userID

	if qID := c.Query("userId"); qID != "" && qID != userID {
		if !canReview(c) {
			RespondForbidden(c, "Cannot list another user's time entries")
			return
		}
		if !utils.IsUUID(qID) {
			RespondBadRequest(c, "userId must be a UUID", nil)
			return
		}
		targetID = qID
	}

	filter := timeentry.ListFilter{UserID: &targetID, Limit: limit}

	if from := c.Query("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			RespondBadRequest(c, "from must be RFC 3339", nil)
			return
		}
		filter.From = &t
	}

	if to := c.Query("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			RespondBadRequest(c, "to must be RFC 3339", nil)
			return
		}
		filter.To = &t
	}

	afterClockIn := cursorMaxTime
	afterID := cursorMaxID

	if cursor := c.Query("cursor"); cursor != "" {
		cur, err := utils.DecodeTimeEntryCursor(cursor)
		if err != nil {
			RespondBadRequest(c, "cursor is invalid", nil)
			return
		}
		afterClockIn = cur.ClockIn
		afterID = cur.ID
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	items, next, hasMore, err := h.store.ListCursor(cctx, filter, afterClockIn, afterID)
	if err != nil {
		RespondInternal(c, "Could not list time entries")
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

// GET /time-entries/:id
func (h *TimeEntriesHandler) GetByID(c *gin.Context) {
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

	entry, err := h.store.GetByID(cctx, id)
	if err != nil {
		if errors.Is(err, timeentry.ErrNotFound) {
			RespondNotFound(c, "Time entry not found")
			return
		}
		RespondInternal(c, "Could not fetch time entry")
		return
	}

	// hide other users' entries from non-reviewers rather than confirm
	// they exist
	if entry.UserID != userID && !canReview(c) {
		RespondNotFound(c, "Time entry not found")
		return
	}

	c.JSON(http.StatusOK, entry)
}
