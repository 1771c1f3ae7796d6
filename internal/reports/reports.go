package reports

import (
	"errors"
	"time"
)

var ErrInvalidMonth = errors.New("invalid month, expected YYYY-MM")

// UserMonthly is one user's row in the monthly compliance summary.
type UserMonthly struct {
	UserID             string `json:"userId"`
	Email              string `json:"email"`
	Nombre             string `json:"nombre"`
	WorkedMinutes      int64  `json:"workedMinutes"`
	EntryCount         int64  `json:"entryCount"`
	AbsenceDays        int64  `json:"absenceDays"`
	PendingCorrections int64  `json:"pendingCorrections"`
}

type MonthlySummary struct {
	Month              string        `json:"month"`
	GeneratedAt        time.Time     `json:"generatedAt"`
	TotalWorkedMinutes int64         `json:"totalWorkedMinutes"`
	Users              []UserMonthly `json:"users"`
}
