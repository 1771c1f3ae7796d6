package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tempushr/tempus/internal/domain/timeentry"
	"github.com/tempushr/tempus/internal/domain/user"
	"github.com/tempushr/tempus/internal/http/handlers"
	"github.com/tempushr/tempus/internal/http/middlewares"
)

// Make sure Gin does not spam the console during the test
func init() {
	gin.SetMode(gin.TestMode)
}

type fakeTimeEntriesStore struct {
	clockInFn    func(ctx context.Context, e timeentry.TimeEntry) (timeentry.TimeEntry, error)
	clockOutFn   func(ctx context.Context, userID string, at time.Time, note string) (timeentry.TimeEntry, error)
	getFn        func(ctx context.Context, id string) (timeentry.TimeEntry, error)
	listCursorFn func(ctx context.Context, filter timeentry.ListFilter, afterClockIn time.Time, afterID string) ([]timeentry.TimeEntry, *string, bool, error)
}

func (f *fakeTimeEntriesStore) ClockIn(ctx context.Context, e timeentry.TimeEntry) (timeentry.TimeEntry, error) {
	if f.clockInFn != nil {
		return f.clockInFn(ctx, e)
	}
	return e, nil
}

func (f *fakeTimeEntriesStore) ClockOut(ctx context.Context, userID string, at time.Time, note string) (timeentry.TimeEntry, error) {
	if f.clockOutFn != nil {
		return f.clockOutFn(ctx, userID, at, note)
	}
	return timeentry.TimeEntry{}, nil
}

func (f *fakeTimeEntriesStore) GetByID(ctx context.Context, id string) (timeentry.TimeEntry, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return timeentry.TimeEntry{}, timeentry.ErrNotFound
}

func (f *fakeTimeEntriesStore) ListCursor(
	ctx context.Context,
	filter timeentry.ListFilter,
	afterClockIn time.Time,
	afterID string,
) ([]timeentry.TimeEntry, *string, bool, error) {
	if f.listCursorFn != nil {
		return f.listCursorFn(ctx, filter, afterClockIn, afterID)
	}
	return []timeentry.TimeEntry{}, nil, false, nil
}

func identityMiddleware(u user.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		middlewares.SetIdentity(c, u)
		c.Next()
	}
}

func employee() user.User {
	return user.User{
		ID:     uuid.NewString(),
		Email:  "ana@example.com",
		Nombre: "Ana",
		Role:   user.RoleEmployee,
		Active: true,
	}
}

func official() user.User {
	return user.User{
		ID:     uuid.NewString(),
		Email:  "hr@example.com",
		Nombre: "HR",
		Role:   user.RoleOfficial,
		Active: true,
	}
}

func entriesRouter(u user.User, store *fakeTimeEntriesStore) *gin.Engine {
	h := handlers.NewTimeEntriesHandler(store)

	r := gin.New()
	r.Use(identityMiddleware(u))
	r.POST("/time-entries/clock-in", h.ClockIn)
	r.POST("/time-entries/clock-out", h.ClockOut)
	r.GET("/time-entries", h.List)
	r.GET("/time-entries/:id", h.GetByID)
	return r
}

func doJSON(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func doJSONAuth(r *gin.Engine, method, path string, body any, accessToken string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestClockIn_Created(t *testing.T) {
	u := employee()

	var captured timeentry.TimeEntry
	store := &fakeTimeEntriesStore{
		clockInFn: func(ctx context.Context, e timeentry.TimeEntry) (timeentry.TimeEntry, error) {
			captured = e
			return e, nil
		},
	}

	w := doJSON(entriesRouter(u, store), http.MethodPost, "/time-entries/clock-in", gin.H{"note": "morning shift"})

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body=%s", w.Code, w.Body.String())
	}
	if captured.UserID != u.ID {
		t.Fatalf("entry userID = %q, want %q", captured.UserID, u.ID)
	}
	if !captured.Open() {
		t.Fatal("new entry must be open")
	}
	if captured.Note != "morning shift" {
		t.Fatalf("note = %q", captured.Note)
	}
}

func TestClockIn_Conflict_WhenAlreadyOpen(t *testing.T) {
	store := &fakeTimeEntriesStore{
		clockInFn: func(ctx context.Context, e timeentry.TimeEntry) (timeentry.TimeEntry, error) {
			return timeentry.TimeEntry{}, timeentry.ErrAlreadyOpen
		},
	}

	w := doJSON(entriesRouter(employee(), store), http.MethodPost, "/time-entries/clock-in", gin.H{})

	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
}

func TestClockOut_Conflict_WhenNothingOpen(t *testing.T) {
	store := &fakeTimeEntriesStore{
		clockOutFn: func(ctx context.Context, userID string, at time.Time, note string) (timeentry.TimeEntry, error) {
			return timeentry.TimeEntry{}, timeentry.ErrNoOpenEntry
		},
	}

	w := doJSON(entriesRouter(employee(), store), http.MethodPost, "/time-entries/clock-out", gin.H{})

	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
}

func TestListEntries_EmployeeIsScopedToSelf(t *testing.T) {
	u := employee()

	var gotFilter timeentry.ListFilter
	store := &fakeTimeEntriesStore{
		listCursorFn: func(ctx context.Context, filter timeentry.ListFilter, afterClockIn time.Time, afterID string) ([]timeentry.TimeEntry, *string, bool, error) {
			gotFilter = filter
			return []timeentry.TimeEntry{}, nil, false, nil
		},
	}

	w := doJSON(entriesRouter(u, store), http.MethodGet, "/time-entries", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if gotFilter.UserID == nil || *gotFilter.UserID != u.ID {
		t.Fatalf("filter userID = %v, want %q", gotFilter.UserID, u.ID)
	}
}

func TestListEntries_EmployeeCannotListOthers(t *testing.T) {
	u := employee()
	store := &fakeTimeEntriesStore{}

	w := doJSON(entriesRouter(u, store), http.MethodGet, "/time-entries?userId="+uuid.NewString(), nil)

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
}

func TestListEntries_OfficialCanListOthers(t *testing.T) {
	target := uuid.NewString()

	var gotFilter timeentry.ListFilter
	store := &fakeTimeEntriesStore{
		listCursorFn: func(ctx context.Context, filter timeentry.ListFilter, afterClockIn time.Time, afterID string) ([]timeentry.TimeEntry, *string, bool, error) {
			gotFilter = filter
			return []timeentry.TimeEntry{}, nil, false, nil
		},
	}

	w := doJSON(entriesRouter(official(), store), http.MethodGet, "/time-entries?userId="+target, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if gotFilter.UserID == nil || *gotFilter.UserID != target {
		t.Fatalf("filter userID = %v, want %q", gotFilter.UserID, target)
	}
}

func TestGetEntry_HidesForeignEntryFromEmployee(t *testing.T) {
	u := employee()
	foreign := timeentry.TimeEntry{
		ID:      uuid.NewString(),
		UserID:  uuid.NewString(), // someone else's
		ClockIn: time.Now().UTC(),
	}

	store := &fakeTimeEntriesStore{
		getFn: func(ctx context.Context, id string) (timeentry.TimeEntry, error) {
			return foreign, nil
		},
	}

	w := doJSON(entriesRouter(u, store), http.MethodGet, "/time-entries/"+foreign.ID, nil)

	// 404, not 403: existence itself is not confirmed
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestListEntries_InvalidLimit(t *testing.T) {
	w := doJSON(entriesRouter(employee(), &fakeTimeEntriesStore{}), http.MethodGet, "/time-entries?limit=500", nil)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}
