package notifications

import "context"

type SendAbsenceDecisionInput struct {
	Email     string
	Nombre    string
	AbsenceID string
	Approved  bool
}

type SendCorrectionDecisionInput struct {
	Email        string
	Nombre       string
	CorrectionID string
	Approved     bool
}

type SendMonthlyReportInput struct {
	Email string
	Month string
}

type Notifier interface {
	SendAbsenceDecision(ctx context.Context, input SendAbsenceDecisionInput) error
	SendCorrectionDecision(ctx context.Context, input SendCorrectionDecisionInput) error
	SendMonthlyReport(ctx context.Context, input SendMonthlyReportInput) error
}
