package jobs

type Type string

const (
	TypeMonthlyReportExport      Type = "report.monthly_export"
	TypeAbsenceDecisionNotice    Type = "absence.decision_notice"
	TypeCorrectionDecisionNotice Type = "correction.decision_notice"
)

// check that the job type is a known constant

func (t Type) IsValid() bool {
	switch t {
	case TypeMonthlyReportExport, TypeAbsenceDecisionNotice, TypeCorrectionDecisionNotice:
		return true
	default:
		return false
	}
}

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusDone       Status = "done"
	StatusFailed     Status = "failed"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusDone, StatusFailed:
		return true
	default:
		return false
	}
}
