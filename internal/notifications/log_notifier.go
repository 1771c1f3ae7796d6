package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// LogNotifier is the default delivery backend: it writes structured
// log lines instead of calling a mail provider. The env knobs let
// integration runs simulate a slow or failing provider.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) simulate(ctx context.Context) error {
	if msStr := os.Getenv("NOTIFIER_SLEEP_MS"); msStr != "" {
		ms, _ := strconv.Atoi(msStr)
		if ms > 0 {
			select {
			case <-time.After(time.Duration(ms) * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	if os.Getenv("NOTIFIER_FAIL") == "1" {
		return fmt.Errorf("provider down (simulated)")
	}
	return nil
}

func (n *LogNotifier) SendAbsenceDecision(ctx context.Context, in SendAbsenceDecisionInput) error {
	if err := n.simulate(ctx); err != nil {
		return err
	}

	n.log.InfoContext(ctx, "notification.absence_decision",
		"email", in.Email,
		"nombre", in.Nombre,
		"absence_id", in.AbsenceID,
		"approved", in.Approved,
	)
	return nil
}

func (n *LogNotifier) SendCorrectionDecision(ctx context.Context, in SendCorrectionDecisionInput) error {
	if err := n.simulate(ctx); err != nil {
		return err
	}

	n.log.InfoContext(ctx, "notification.correction_decision",
		"email", in.Email,
		"nombre", in.Nombre,
		"correction_id", in.CorrectionID,
		"approved", in.Approved,
	)
	return nil
}

func (n *LogNotifier) SendMonthlyReport(ctx context.Context, in SendMonthlyReportInput) error {
	if err := n.simulate(ctx); err != nil {
		return err
	}

	n.log.InfoContext(ctx, "notification.monthly_report",
		"email", in.Email,
		"month", in.Month,
	)
	return nil
}
