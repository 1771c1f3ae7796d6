package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tempushr/tempus/internal/domain/user"
	"github.com/tempushr/tempus/internal/jobs"
	"github.com/tempushr/tempus/internal/notifications"
	"github.com/tempushr/tempus/internal/reports"
)

type UserLookup interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

type ReportBuilder interface {
	MonthlySummary(ctx context.Context, month string) (reports.MonthlySummary, error)
}

// JobExecutor dispatches claimed jobs to their handlers.
type JobExecutor struct {
	users    UserLookup
	reports  ReportBuilder
	notifier notifications.Notifier
	log      *slog.Logger
}

func NewJobExecutor(users UserLookup, rb ReportBuilder, n notifications.Notifier, log *slog.Logger) *JobExecutor {
	return &JobExecutor{
		users:    users,
		reports:  rb,
		notifier: n,
		log:      log,
	}
}

func (e *JobExecutor) Execute(ctx context.Context, j jobs.Job) error {
	payload, err := jobs.DecodePayload(j)
	if err != nil {
		return err
	}

	switch p := payload.(type) {
	case jobs.MonthlyReportExportPayload:
		return e.runMonthlyExport(ctx, p)
	case jobs.AbsenceDecisionNoticePayload:
		return e.runAbsenceNotice(ctx, p)
	case jobs.CorrectionDecisionNoticePayload:
		return e.runCorrectionNotice(ctx, p)
	default:
		return fmt.Errorf("%w: %s", jobs.ErrInvalidJobType, j.Type)
	}
}

func (e *JobExecutor) runMonthlyExport(ctx context.Context, p jobs.MonthlyReportExportPayload) error {
	summary, err := e.reports.MonthlySummary(ctx, p.Month)
	if err != nil {
		return fmt.Errorf("build monthly summary: %w", err)
	}

	out, err := reports.RenderCSV(summary)
	if err != nil {
		return fmt.Errorf("render monthly csv: %w", err)
	}

	// The export lands in the worker log for now; shipping the file to
	// object storage is the followup tracked for the payroll handoff.
	e.log.InfoContext(ctx, "monthly report exported",
		"month", summary.Month,
		"users", len(summary.Users),
		"total_worked_minutes", summary.TotalWorkedMinutes,
		"csv_bytes", len(out),
		"request_id", p.RequestID,
	)

	requester, err := e.users.GetByID(ctx, p.RequestedBy)
	if err != nil {
		return fmt.Errorf("load requester %s: %w", p.RequestedBy, err)
	}

	return e.notifier.SendMonthlyReport(ctx, notifications.SendMonthlyReportInput{
		Email: requester.Email,
		Month: p.Month,
	})
}

func (e *JobExecutor) runAbsenceNotice(ctx context.Context, p jobs.AbsenceDecisionNoticePayload) error {
	u, err := e.users.GetByID(ctx, p.UserID)
	if err != nil {
		return fmt.Errorf("load user %s: %w", p.UserID, err)
	}

	return e.notifier.SendAbsenceDecision(ctx, notifications.SendAbsenceDecisionInput{
		Email:     u.Email,
		Nombre:    u.Nombre,
		AbsenceID: p.AbsenceID,
		Approved:  p.Approved,
	})
}

func (e *JobExecutor) runCorrectionNotice(ctx context.Context, p jobs.CorrectionDecisionNoticePayload) error {
	u, err := e.users.GetByID(ctx, p.UserID)
	if err != nil {
		return fmt.Errorf("load user %s: %w", p.UserID, err)
	}

	return e.notifier.SendCorrectionDecision(ctx, notifications.SendCorrectionDecisionInput{
		Email:        u.Email,
		Nombre:       u.Nombre,
		CorrectionID: p.CorrectionID,
		Approved:     p.Approved,
	})
}
