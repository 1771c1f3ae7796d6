package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/tempushr/tempus/internal/jobs"
)

type fakeJobsRepo struct {
	claimFn      func(ctx context.Context, workerID string) (jobs.Job, error)
	doneIDs      []string
	failedIDs    []string
	failedMsgs   []string
	rescheduled  []string
	rescheduleAt []time.Time
}

func (f *fakeJobsRepo) ClaimNext(ctx context.Context, workerID string) (jobs.Job, error) {
	return f.claimFn(ctx, workerID)
}

func (f *fakeJobsRepo) MarkDone(ctx context.Context, id string) error {
	f.doneIDs = append(f.doneIDs, id)
	return nil
}

func (f *fakeJobsRepo) MarkFailed(ctx context.Context, id string, errMsg string) error {
	f.failedIDs = append(f.failedIDs, id)
	f.failedMsgs = append(f.failedMsgs, errMsg)
	return nil
}

func (f *fakeJobsRepo) Reschedule(ctx context.Context, id string, runAt time.Time, errMsg string) error {
	f.rescheduled = append(f.rescheduled, id)
	f.rescheduleAt = append(f.rescheduleAt, runAt)
	return nil
}

func (f *fakeJobsRepo) RequeueStaleProcessing(ctx context.Context, lockTTL time.Duration) (int64, error) {
	return 0, nil
}

type fakeExecutor struct {
	err   error
	calls int
}

func (f *fakeExecutor) Execute(ctx context.Context, j jobs.Job) error {
	f.calls++
	return f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testJob(t *testing.T, attempts int) jobs.Job {
	t.Helper()

	payload, err := jobs.EncodePayload(jobs.TypeAbsenceDecisionNotice, jobs.AbsenceDecisionNoticePayload{
		AbsenceID: "a-1",
		UserID:    "u-1",
		Approved:  true,
	})
	if err != nil {
		t.Fatalf("encode payload: %v", err)
	}

	j, err := jobs.New(jobs.TypeAbsenceDecisionNotice, payload, time.Time{})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	j.Attempts = attempts
	return j
}

func TestProcessOne_EmptyQueue(t *testing.T) {
	repo := &fakeJobsRepo{
		claimFn: func(ctx context.Context, workerID string) (jobs.Job, error) {
			return jobs.Job{}, jobs.ErrJobNotFound
		},
	}

	w := New(Config{WorkerID: "test-1"}, repo, &fakeExecutor{}, discardLogger(), nil)

	processed, err := w.ProcessOne(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if processed {
		t.Fatal("expected processed=false on empty queue")
	}
}

func TestProcessOne_Success_MarksDone(t *testing.T) {
	j := testJob(t, 0)
	repo := &fakeJobsRepo{
		claimFn: func(ctx context.Context, workerID string) (jobs.Job, error) {
			return j, nil
		},
	}
	exec := &fakeExecutor{}

	w := New(Config{WorkerID: "test-1"}, repo, exec, discardLogger(), nil)

	processed, err := w.ProcessOne(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !processed {
		t.Fatal("expected processed=true")
	}
	if exec.calls != 1 {
		t.Fatalf("executor calls = %d, want 1", exec.calls)
	}
	if len(repo.doneIDs) != 1 || repo.doneIDs[0] != j.ID {
		t.Fatalf("MarkDone calls = %v, want [%s]", repo.doneIDs, j.ID)
	}
	if len(repo.failedIDs) != 0 || len(repo.rescheduled) != 0 {
		t.Fatal("no failure paths should be taken on success")
	}
}

func TestProcessOne_Failure_Reschedules(t *testing.T) {
	j := testJob(t, 1) // attempts remain
	repo := &fakeJobsRepo{
		claimFn: func(ctx context.Context, workerID string) (jobs.Job, error) {
			return j, nil
		},
	}
	exec := &fakeExecutor{err: errors.New("provider down")}

	w := New(Config{WorkerID: "test-1"}, repo, exec, discardLogger(), nil)

	processed, err := w.ProcessOne(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !processed {
		t.Fatal("expected processed=true")
	}
	if len(repo.rescheduled) != 1 || repo.rescheduled[0] != j.ID {
		t.Fatalf("Reschedule calls = %v, want [%s]", repo.rescheduled, j.ID)
	}
	if !repo.rescheduleAt[0].After(time.Now().UTC()) {
		t.Fatal("retry must be scheduled in the future")
	}
	if len(repo.failedIDs) != 0 {
		t.Fatal("job with remaining attempts must not be marked failed")
	}
}

func TestProcessOne_Failure_ExhaustedAttempts(t *testing.T) {
	j := testJob(t, 4) // MaxAttempts=5, this claim is the last try
	repo := &fakeJobsRepo{
		claimFn: func(ctx context.Context, workerID string) (jobs.Job, error) {
			return j, nil
		},
	}
	exec := &fakeExecutor{err: errors.New("provider down")}

	w := New(Config{WorkerID: "test-1"}, repo, exec, discardLogger(), nil)

	if _, err := w.ProcessOne(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.failedIDs) != 1 || repo.failedIDs[0] != j.ID {
		t.Fatalf("MarkFailed calls = %v, want [%s]", repo.failedIDs, j.ID)
	}
	if repo.failedMsgs[0] != "provider down" {
		t.Fatalf("failure message = %q", repo.failedMsgs[0])
	}
	if len(repo.rescheduled) != 0 {
		t.Fatal("exhausted job must not be rescheduled")
	}
}

func TestExponentialBackoff_GrowsAndCaps(t *testing.T) {
	prev := time.Duration(0)
	for attempt := 0; attempt < 6; attempt++ {
		d := ExponentialBackoff(attempt)
		if d <= prev-250*time.Millisecond {
			t.Fatalf("backoff for attempt %d (%v) did not grow past %v", attempt, d, prev)
		}
		prev = d
	}

	if d := ExponentialBackoff(30); d > 5*time.Minute+250*time.Millisecond {
		t.Fatalf("backoff must cap at 5m, got %v", d)
	}
}
