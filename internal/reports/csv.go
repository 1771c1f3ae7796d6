package reports

import (
	"bytes"
	"encoding/csv"
	"strconv"
)

var csvHeader = []string{"user_id", "email", "nombre", "worked_minutes", "entry_count", "absence_days", "pending_corrections"}

// RenderCSV serializes the summary as a CSV export, one row per user
// plus a header row.
func RenderCSV(s MonthlySummary) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, u := range s.Users {
		row := []string{
			u.UserID,
			u.Email,
			u.Nombre,
			strconv.FormatInt(u.WorkedMinutes, 10),
			strconv.FormatInt(u.EntryCount, 10),
			strconv.FormatInt(u.AbsenceDays, 10),
			strconv.FormatInt(u.PendingCorrections, 10),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
