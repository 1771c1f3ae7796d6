package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tempushr/tempus/internal/observability"
	"github.com/tempushr/tempus/internal/reports"
)

type ReportsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewReportsRepo(pool *pgxpool.Pool, prom *observability.Prom) *ReportsRepo {
	return &ReportsRepo{pool: pool, prom: prom}
}

func (r *ReportsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

// monthWindow converts "2026-08" into [start, nextMonthStart) in UTC.
func monthWindow(month string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01", month)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid month %q: %w", month, err)
	}
	start = start.UTC()
	return start, start.AddDate(0, 1, 0), nil
}

// MonthlySummary aggregates per-user worked time, approved absence days
// and pending corrections for one calendar month. Open entries (no
// clock_out yet) are excluded from worked minutes.
func (r *ReportsRepo) MonthlySummary(ctx context.Context, month string) (reports.MonthlySummary, error) {
	start, end, err := monthWindow(month)
	if err != nil {
		return reports.MonthlySummary{}, reports.ErrInvalidMonth
	}

	var rows pgx.Rows

	err = r.observe("reports.monthly_summary", func() error {
		var qerr error
		rows, qerr = r.pool.Query(ctx, `
			SELECT
				u.id,
				u.email,
				u.nombre,
				COALESCE(w.worked_minutes, 0)      AS worked_minutes,
				COALESCE(w.entry_count, 0)         AS entry_count,
				COALESCE(a.absence_days, 0)        AS absence_days,
				COALESCE(c.pending_corrections, 0) AS pending_corrections
			FROM users u
			LEFT JOIN (
				SELECT user_id,
				       SUM(EXTRACT(EPOCH FROM (clock_out - clock_in)) / 60)::bigint AS worked_minutes,
				       COUNT(*) AS entry_count
				FROM time_entries
				WHERE clock_out IS NOT NULL
				  AND clock_in >= $1 AND clock_in < $2
				GROUP BY user_id
			) w ON w.user_id = u.id
			LEFT JOIN (
				SELECT user_id,
				       SUM(LEAST(end_date, ($2::date - 1)) - GREATEST(start_date, $1::date) + 1) AS absence_days
				FROM absences
				WHERE status = 'approved'
				  AND start_date < $2::date
				  AND end_date >= $1::date
				GROUP BY user_id
			) a ON a.user_id = u.id
			LEFT JOIN (
				SELECT user_id, COUNT(*) AS pending_corrections
				FROM corrections
				WHERE status = 'pending'
				GROUP BY user_id
			) c ON c.user_id = u.id
			WHERE u.active = TRUE
			ORDER BY u.email ASC
		`, start, end)
		return qerr
	})
	if err != nil {
		return reports.MonthlySummary{}, err
	}
	defer rows.Close()

	out := reports.MonthlySummary{
		Month:       month,
		GeneratedAt: time.Now().UTC(),
	}

	for rows.Next() {
		var row reports.UserMonthly

		if scanErr := rows.Scan(
			&row.UserID, &row.Email, &row.Nombre,
			&row.WorkedMinutes, &row.EntryCount,
			&row.AbsenceDays, &row.PendingCorrections,
		); scanErr != nil {
			return reports.MonthlySummary{}, scanErr
		}

		out.Users = append(out.Users, row)
		out.TotalWorkedMinutes += row.WorkedMinutes
	}

	if rows.Err() != nil {
		return reports.MonthlySummary{}, rows.Err()
	}

	return out, nil
}
