package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tempushr/tempus/internal/domain/absence"
	"github.com/tempushr/tempus/internal/utils"
)

type AbsencesRepo struct {
	pool *pgxpool.Pool
}

func NewAbsencesRepo(pool *pgxpool.Pool) *AbsencesRepo {
	return &AbsencesRepo{pool: pool}
}

const absenceColumns = `id, user_id, kind, start_date, end_date, reason, status, reviewed_by, reviewed_at, review_note, created_at, updated_at`

func scanAbsence(row pgx.Row) (absence.Absence, error) {
	var a absence.Absence
	var status string

	err := row.Scan(
		&a.ID, &a.UserID, &a.Kind, &a.StartDate, &a.EndDate, &a.Reason,
		&status, &a.ReviewedBy, &a.ReviewedAt, &a.ReviewNote,
		&a.CreatedAt, &a.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return absence.Absence{}, absence.ErrNotFound
		}
		return absence.Absence{}, err
	}

	a.Status = absence.Status(status)
	return a, nil
}

func (r *AbsencesRepo) Create(ctx context.Context, a absence.Absence) (absence.Absence, error) {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO absences (id, user_id, kind, start_date, end_date, reason, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		a.ID, a.UserID, a.Kind, a.StartDate, a.EndDate, a.Reason, string(a.Status), a.CreatedAt, a.UpdatedAt,
	)

	if err != nil {
		return absence.Absence{}, err
	}

	return a, nil
}

func (r *AbsencesRepo) GetByID(ctx context.Context, id string) (absence.Absence, error) {
	return scanAbsence(r.pool.QueryRow(ctx,
		`SELECT `+absenceColumns+` FROM absences WHERE id = $1`, id))
}

func (r *AbsencesRepo) ListCursor(
	ctx context.Context,
	filter absence.ListFilter,
	afterCreatedAt time.Time,
	afterID string,
) (items []absence.Absence, nextCursor *string, hasMore bool, err error) {
	base := `SELECT ` + absenceColumns + ` FROM absences`

	var (
		conds   []string
		args    []any
		argsPos = 1
	)

	if filter.UserID != nil {
		conds = append(conds, fmt.Sprintf("user_id = $%d", argsPos))
		args = append(args, *filter.UserID)
		argsPos++
	}

	if filter.Status != nil {
		conds = append(conds, fmt.Sprintf("status = $%d", argsPos))
		args = append(args, string(*filter.Status))
		argsPos++
	}

	conds = append(conds, fmt.Sprintf("(created_at, id) < ($%d, $%d)", argsPos, argsPos+1))
	args = append(args, afterCreatedAt, afterID)
	argsPos += 2

	q := base + " WHERE " + strings.Join(conds, " AND ")

	limit := filter.Limit

	if limit <= 0 {
		limit = 25
	}

	q += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", argsPos)
	args = append(args, limit+1)

	rows, err := r.pool.Query(ctx, q, args...)

	if err != nil {
		return nil, nil, false, err
	}

	defer rows.Close()

	out := make([]absence.Absence, 0, limit)

	for rows.Next() {
		var a absence.Absence
		var status string

		if scanErr := rows.Scan(
			&a.ID, &a.UserID, &a.Kind, &a.StartDate, &a.EndDate, &a.Reason,
			&status, &a.ReviewedBy, &a.ReviewedAt, &a.ReviewNote,
			&a.CreatedAt, &a.UpdatedAt,
		); scanErr != nil {
			return nil, nil, false, scanErr
		}

		a.Status = absence.Status(status)
		out = append(out, a)
	}

	if rows.Err() != nil {
		return nil, nil, false, rows.Err()
	}

	if len(out) > limit {
		hasMore = true
		out = out[:limit]
		last := out[len(out)-1]

		cur, encErr := utils.EncodeAbsenceCursor(last.CreatedAt, last.ID)
		if encErr != nil {
			return nil, nil, false, encErr
		}
		nextCursor = &cur
	}

	return out, nextCursor, hasMore, nil
}

// Decide records a review outcome. The status predicate in the UPDATE
// makes the pending->decided transition race-free: a concurrent second
// reviewer updates zero rows.
func (r *AbsencesRepo) Decide(ctx context.Context, id, reviewerID string, approve bool, note string) (absence.Absence, error) {
	status := absence.StatusRejected

	if approve {
		status = absence.StatusApproved
	}

	var reviewNote *string

	if note != "" {
		reviewNote = &note
	}

	a, err := scanAbsence(r.pool.QueryRow(ctx, `
		UPDATE absences
		SET status = $2,
		    reviewed_by = $3,
		    reviewed_at = NOW(),
		    review_note = $4,
		    updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING `+absenceColumns,
		id, string(status), reviewerID, reviewNote,
	))

	if err == nil {
		return a, nil
	}

	if !errors.Is(err, absence.ErrNotFound) {
		return absence.Absence{}, err
	}

	// zero rows: either the absence is gone or it was already decided
	_, getErr := r.GetByID(ctx, id)

	if getErr != nil {
		return absence.Absence{}, getErr
	}

	return absence.Absence{}, absence.ErrNotPending
}
