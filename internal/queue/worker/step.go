package worker

import (
	"context"
	"errors"
	"time"

	"github.com/tempushr/tempus/internal/jobs"
)

// ProcessOne claims and runs a single job. The bool reports whether a
// job was available; queue-empty is not an error.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	claimCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	j, err := w.repo.ClaimNext(claimCtx, w.cfg.WorkerID)
	cancel()

	if err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			return false, nil
		}
		return false, err
	}

	w.log.Info("claimed job",
		"job_id", j.ID,
		"job_type", string(j.Type),
		"attempt", j.Attempts,
	)

	start := time.Now()
	if w.prom != nil {
		w.prom.JobsInFlight.Inc()
	}

	execCtx, cancelExec := context.WithTimeout(ctx, w.cfg.ExecTimeout)
	execErr := w.exec.Execute(execCtx, j)
	cancelExec()

	if w.prom != nil {
		w.prom.JobsInFlight.Dec()
	}

	if execErr != nil {
		w.handleFailure(ctx, j, execErr, time.Since(start))
		return true, nil
	}

	if err := w.repo.MarkDone(ctx, j.ID); err != nil {
		_ = w.repo.MarkFailed(ctx, j.ID, "mark_done_failed: "+err.Error())
		return true, err
	}

	w.observeResult(j, "done", time.Since(start))
	w.log.Info("job done", "job_id", j.ID, "job_type", string(j.Type))
	return true, nil
}

// handleFailure retries with backoff while attempts remain, then
// parks the job as failed.
func (w *Worker) handleFailure(ctx context.Context, j jobs.Job, execErr error, took time.Duration) {
	// ClaimNext returned the pre-claim attempt count, the claim itself
	// is the attempt we just burned.
	nextAttempt := j.Attempts + 1

	if nextAttempt >= j.MaxAttempts {
		if err := w.repo.MarkFailed(ctx, j.ID, execErr.Error()); err != nil {
			w.log.Error("mark failed errored", "job_id", j.ID, "error", err)
		}

		w.observeResult(j, "failed", took)
		w.log.Error("job failed permanently",
			"job_id", j.ID,
			"job_type", string(j.Type),
			"attempts", nextAttempt,
			"error", execErr,
		)
		return
	}

	runAt := time.Now().UTC().Add(ExponentialBackoff(j.Attempts))
	if err := w.repo.Reschedule(ctx, j.ID, runAt, execErr.Error()); err != nil {
		w.log.Error("reschedule errored", "job_id", j.ID, "error", err)
		return
	}

	w.observeResult(j, "retry", took)
	w.log.Warn("job rescheduled",
		"job_id", j.ID,
		"job_type", string(j.Type),
		"attempt", nextAttempt,
		"run_at", runAt,
		"error", execErr,
	)
}

func (w *Worker) observeResult(j jobs.Job, result string, took time.Duration) {
	if w.prom == nil {
		return
	}
	w.prom.JobResults.WithLabelValues(string(j.Type), result).Inc()
	w.prom.JobDuration.WithLabelValues(string(j.Type), result).Observe(took.Seconds())
}
