package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/tempushr/tempus/internal/jobs"
	"github.com/tempushr/tempus/internal/observability"
)

type JobsRepository interface {
	ClaimNext(ctx context.Context, workerID string) (jobs.Job, error)
	MarkDone(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, errMsg string) error
	Reschedule(ctx context.Context, id string, runAt time.Time, errMsg string) error
	RequeueStaleProcessing(ctx context.Context, lockTTL time.Duration) (int64, error)
}

// Executor runs the payload of one claimed job.
type Executor interface {
	Execute(ctx context.Context, j jobs.Job) error
}

type Config struct {
	PollInterval time.Duration
	WorkerID     string
	StaleLockTTL time.Duration
	ExecTimeout  time.Duration
}

type Worker struct {
	cfg  Config
	repo JobsRepository
	exec Executor
	log  *slog.Logger
	prom *observability.Prom

	readyMu sync.RWMutex
	ready   bool
}

func New(cfg Config, repo JobsRepository, exec Executor, log *slog.Logger, prom *observability.Prom) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.StaleLockTTL <= 0 {
		cfg.StaleLockTTL = 2 * time.Minute
	}
	if cfg.ExecTimeout <= 0 {
		cfg.ExecTimeout = 30 * time.Second
	}
	if cfg.WorkerID == "" {
		host, _ := os.Hostname()
		cfg.WorkerID = fmt.Sprintf("%s-%d", host, os.Getpid())
	}

	return &Worker{
		cfg:  cfg,
		repo: repo,
		exec: exec,
		log:  log,
		prom: prom,
	}
}

func (w *Worker) setReady(v bool) {
	w.readyMu.Lock()
	w.ready = v
	w.readyMu.Unlock()
}

// Run polls until ctx is cancelled. Between ticks it drains all
// runnable jobs so a backlog does not wait one poll interval per job.
func (w *Worker) Run(ctx context.Context) error {
	w.setReady(true)
	defer w.setReady(false)

	w.log.Info("worker started",
		"worker_id", w.cfg.WorkerID,
		"poll_interval", w.cfg.PollInterval.String(),
	)

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	staleTicker := time.NewTicker(w.cfg.StaleLockTTL)
	defer staleTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("worker received shutdown signal")
			return nil

		case <-staleTicker.C:
			n, err := w.repo.RequeueStaleProcessing(ctx, w.cfg.StaleLockTTL)
			if err != nil {
				w.log.Error("requeue stale jobs failed", "error", err)
			} else if n > 0 {
				w.log.Warn("requeued stale jobs", "count", n)
			}

		case <-ticker.C:
			for {
				processed, err := w.ProcessOne(ctx)
				if err != nil {
					w.log.Error("process job failed", "error", err)
					break
				}
				if !processed {
					break
				}
			}
		}
	}
}
