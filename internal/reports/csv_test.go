package reports

import (
	"strings"
	"testing"
	"time"
)

func TestRenderCSV(t *testing.T) {
	s := MonthlySummary{
		Month:              "2026-08",
		GeneratedAt:        time.Now().UTC(),
		TotalWorkedMinutes: 1020,
		Users: []UserMonthly{
			{UserID: "u1", Email: "ana@example.com", Nombre: "Ana", WorkedMinutes: 540, EntryCount: 3, AbsenceDays: 1},
			{UserID: "u2", Email: "bo@example.com", Nombre: "Bo, Jr.", WorkedMinutes: 480, EntryCount: 2, PendingCorrections: 1},
		},
	}

	out, err := RenderCSV(s)
	if err != nil {
		t.Fatalf("RenderCSV: %v", err)
	}

	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "user_id,email,nombre,worked_minutes,entry_count,absence_days,pending_corrections" {
		t.Fatalf("unexpected header: %s", lines[0])
	}
	if lines[1] != "u1,ana@example.com,Ana,540,3,1,0" {
		t.Fatalf("unexpected row: %s", lines[1])
	}
	// the comma in the name must be quoted
	if !strings.Contains(lines[2], `"Bo, Jr."`) {
		t.Fatalf("expected quoted name in row: %s", lines[2])
	}
}

func TestRenderCSVEmpty(t *testing.T) {
	out, err := RenderCSV(MonthlySummary{Month: "2026-01"})
	if err != nil {
		t.Fatalf("RenderCSV: %v", err)
	}
	if got := strings.TrimRight(string(out), "\n"); strings.Count(got, "\n") != 0 {
		t.Fatalf("expected header only, got %q", got)
	}
}
