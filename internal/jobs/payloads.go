package jobs

// MonthlyReportExportPayload asks the worker to render one month's
// compliance summary. Keep payloads minimal and ID-based; the worker
// loads details from the DB.
type MonthlyReportExportPayload struct {
	Month       string `json:"month"` // YYYY-MM
	RequestedBy string `json:"requestedBy"`
	RequestID   string `json:"requestId,omitempty"` // optional: correlation
}

// AbsenceDecisionNoticePayload notifies an employee that their absence
// request was decided.
type AbsenceDecisionNoticePayload struct {
	AbsenceID string `json:"absenceId"`
	UserID    string `json:"userId"`
	Approved  bool   `json:"approved"`
}

// CorrectionDecisionNoticePayload notifies an employee that their time
// correction was decided.
type CorrectionDecisionNoticePayload struct {
	CorrectionID string `json:"correctionId"`
	UserID       string `json:"userId"`
	Approved     bool   `json:"approved"`
}
