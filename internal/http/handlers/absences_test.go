package handlers_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tempushr/tempus/internal/domain/absence"
	"github.com/tempushr/tempus/internal/domain/user"
	"github.com/tempushr/tempus/internal/http/handlers"
	"github.com/tempushr/tempus/internal/jobs"
)

type fakeAbsencesStore struct {
	createFn     func(ctx context.Context, a absence.Absence) (absence.Absence, error)
	getFn        func(ctx context.Context, id string) (absence.Absence, error)
	listCursorFn func(ctx context.Context, filter absence.ListFilter, afterCreatedAt time.Time, afterID string) ([]absence.Absence, *string, bool, error)
	decideFn     func(ctx context.Context, id, reviewerID string, approve bool, note string) (absence.Absence, error)
}

func (f *fakeAbsencesStore) Create(ctx context.Context, a absence.Absence) (absence.Absence, error) {
	if f.createFn != nil {
		return f.createFn(ctx, a)
	}
	return a, nil
}

func (f *fakeAbsencesStore) GetByID(ctx context.Context, id string) (absence.Absence, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return absence.Absence{}, absence.ErrNotFound
}

func (f *fakeAbsencesStore) ListCursor(
	ctx context.Context,
	filter absence.ListFilter,
	afterCreatedAt time.Time,
	afterID string,
) ([]absence.Absence, *string, bool, error) {
	if f.listCursorFn != nil {
		return f.listCursorFn(ctx, filter, afterCreatedAt, afterID)
	}
	return []absence.Absence{}, nil, false, nil
}

func (f *fakeAbsencesStore) Decide(ctx context.Context, id, reviewerID string, approve bool, note string) (absence.Absence, error) {
	if f.decideFn != nil {
		return f.decideFn(ctx, id, reviewerID, approve, note)
	}
	return absence.Absence{}, absence.ErrNotFound
}

type fakeQueue struct {
	created []jobs.Job
	err     error
}

func (f *fakeQueue) Create(ctx context.Context, t jobs.Type, payload []byte, runAt time.Time) (jobs.Job, error) {
	if f.err != nil {
		return jobs.Job{}, f.err
	}

	j, err := jobs.New(t, payload, runAt)
	if err != nil {
		return jobs.Job{}, err
	}
	f.created = append(f.created, j)
	return j, nil
}

func absencesRouter(u user.User, store *fakeAbsencesStore, queue *fakeQueue) *gin.Engine {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := handlers.NewAbsencesHandler(store, queue, log)

	r := gin.New()
	r.Use(identityMiddleware(u))
	r.POST("/absences", h.Create)
	r.GET("/absences", h.List)
	r.GET("/absences/:id", h.GetByID)
	r.POST("/absences/:id/decision", h.Decide)
	return r
}

func TestCreateAbsence_Created(t *testing.T) {
	u := employee()
	store := &fakeAbsencesStore{}

	w := doJSON(absencesRouter(u, store, &fakeQueue{}), http.MethodPost, "/absences", gin.H{
		"kind":      "vacation",
		"startDate": "2026-09-07",
		"endDate":   "2026-09-11",
		"reason":    "summer break",
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body=%s", w.Code, w.Body.String())
	}
}

func TestCreateAbsence_RejectsReversedRange(t *testing.T) {
	w := doJSON(absencesRouter(employee(), &fakeAbsencesStore{}, &fakeQueue{}), http.MethodPost, "/absences", gin.H{
		"kind":      "vacation",
		"startDate": "2026-09-11",
		"endDate":   "2026-09-07",
	})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestCreateAbsence_RejectsUnknownKind(t *testing.T) {
	w := doJSON(absencesRouter(employee(), &fakeAbsencesStore{}, &fakeQueue{}), http.MethodPost, "/absences", gin.H{
		"kind":      "sabbatical",
		"startDate": "2026-09-07",
		"endDate":   "2026-09-11",
	})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestDecideAbsence_ApprovesAndEnqueuesNotice(t *testing.T) {
	reviewer := official()
	requester := uuid.NewString()
	absenceID := uuid.NewString()

	store := &fakeAbsencesStore{
		decideFn: func(ctx context.Context, id, reviewerID string, approve bool, note string) (absence.Absence, error) {
			if id != absenceID {
				t.Fatalf("decide id = %q, want %q", id, absenceID)
			}
			if reviewerID != reviewer.ID {
				t.Fatalf("reviewerID = %q, want %q", reviewerID, reviewer.ID)
			}
			return absence.Absence{
				ID:     id,
				UserID: requester,
				Status: absence.StatusApproved,
			}, nil
		},
	}
	queue := &fakeQueue{}

	w := doJSON(absencesRouter(reviewer, store, queue), http.MethodPost, "/absences/"+absenceID+"/decision", gin.H{
		"approve": true,
		"note":    "enjoy",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", w.Code, w.Body.String())
	}

	if len(queue.created) != 1 {
		t.Fatalf("enqueued jobs = %d, want 1", len(queue.created))
	}
	j := queue.created[0]
	if j.Type != jobs.TypeAbsenceDecisionNotice {
		t.Fatalf("job type = %q", j.Type)
	}

	payload, err := jobs.DecodePayload(j)
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	p, ok := payload.(jobs.AbsenceDecisionNoticePayload)
	if !ok {
		t.Fatalf("payload type = %T", payload)
	}
	if p.UserID != requester || p.AbsenceID != absenceID || !p.Approved {
		t.Fatalf("payload = %+v", p)
	}
}

func TestDecideAbsence_AlreadyDecided(t *testing.T) {
	store := &fakeAbsencesStore{
		decideFn: func(ctx context.Context, id, reviewerID string, approve bool, note string) (absence.Absence, error) {
			return absence.Absence{}, absence.ErrNotPending
		},
	}

	w := doJSON(absencesRouter(official(), store, &fakeQueue{}), http.MethodPost, "/absences/"+uuid.NewString()+"/decision", gin.H{
		"approve": false,
	})

	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
}

func TestDecideAbsence_QueueFailureDoesNotFailRequest(t *testing.T) {
	store := &fakeAbsencesStore{
		decideFn: func(ctx context.Context, id, reviewerID string, approve bool, note string) (absence.Absence, error) {
			return absence.Absence{ID: id, UserID: uuid.NewString(), Status: absence.StatusRejected}, nil
		},
	}
	queue := &fakeQueue{err: context.DeadlineExceeded}

	w := doJSON(absencesRouter(official(), store, queue), http.MethodPost, "/absences/"+uuid.NewString()+"/decision", gin.H{
		"approve": false,
	})

	// the decision is committed, notification is best effort
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestListAbsences_EmployeeScopedToSelf(t *testing.T) {
	u := employee()

	var gotFilter absence.ListFilter
	store := &fakeAbsencesStore{
		listCursorFn: func(ctx context.Context, filter absence.ListFilter, afterCreatedAt time.Time, afterID string) ([]absence.Absence, *string, bool, error) {
			gotFilter = filter
			return []absence.Absence{}, nil, false, nil
		},
	}

	// an employee asking for someone else still only gets their own
	w := doJSON(absencesRouter(u, store, &fakeQueue{}), http.MethodGet, "/absences?userId="+uuid.NewString(), nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if gotFilter.UserID == nil || *gotFilter.UserID != u.ID {
		t.Fatalf("filter userID = %v, want %q", gotFilter.UserID, u.ID)
	}
}
