package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tempushr/tempus/internal/domain/correction"
)

type CorrectionsRepo struct {
	pool *pgxpool.Pool
}

func NewCorrectionsRepo(pool *pgxpool.Pool) *CorrectionsRepo {
	return &CorrectionsRepo{pool: pool}
}

const correctionColumns = `id, user_id, entry_id, proposed_clock_in, proposed_clock_out, reason, status, reviewed_by, reviewed_at, review_note, created_at, updated_at`

func scanCorrection(row pgx.Row) (correction.Correction, error) {
	var c correction.Correction
	var status string

	err := row.Scan(
		&c.ID, &c.UserID, &c.EntryID, &c.ProposedClockIn, &c.ProposedClockOut,
		&c.Reason, &status, &c.ReviewedBy, &c.ReviewedAt, &c.ReviewNote,
		&c.CreatedAt, &c.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return correction.Correction{}, correction.ErrNotFound
		}
		return correction.Correction{}, err
	}

	c.Status = correction.Status(status)
	return c, nil
}

func (r *CorrectionsRepo) Create(ctx context.Context, c correction.Correction) (correction.Correction, error) {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO corrections (id, user_id, entry_id, proposed_clock_in, proposed_clock_out, reason, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		c.ID, c.UserID, c.EntryID, c.ProposedClockIn, c.ProposedClockOut, c.Reason, string(c.Status), c.CreatedAt, c.UpdatedAt,
	)

	if err != nil {
		return correction.Correction{}, err
	}

	return c, nil
}

func (r *CorrectionsRepo) GetByID(ctx context.Context, id string) (correction.Correction, error) {
	return scanCorrection(r.pool.QueryRow(ctx,
		`SELECT `+correctionColumns+` FROM corrections WHERE id = $1`, id))
}

func (r *CorrectionsRepo) List(ctx context.Context, filter correction.ListFilter) ([]correction.Correction, error) {
	base := `SELECT ` + correctionColumns + ` FROM corrections`

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

	q := base

	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}

	limit := filter.Limit

	if limit <= 0 {
		limit = 50
	}

	q += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", argsPos)
	args = append(args, limit)

	rows, err := r.pool.Query(ctx, q, args...)

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	out := make([]correction.Correction, 0, limit)

	for rows.Next() {
		var c correction.Correction
		var status string

		if scanErr := rows.Scan(
			&c.ID, &c.UserID, &c.EntryID, &c.ProposedClockIn, &c.ProposedClockOut,
			&c.Reason, &status, &c.ReviewedBy, &c.ReviewedAt, &c.ReviewNote,
			&c.CreatedAt, &c.UpdatedAt,
		); scanErr != nil {
			return nil, scanErr
		}

		c.Status = correction.Status(status)
		out = append(out, c)
	}

	return out, rows.Err()
}

// Decide locks the correction row, flips its status and, on approval,
// rewrites the target time entry — all in one transaction so the entry
// can never drift from the decision.
func (r *CorrectionsRepo) Decide(ctx context.Context, id, reviewerID string, approve bool, note string) (correction.Correction, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})

	if err != nil {
		return correction.Correction{}, err
	}

	defer func() { _ = tx.Rollback(ctx) }()

	c, err := scanCorrection(tx.QueryRow(ctx,
		`SELECT `+correctionColumns+` FROM corrections WHERE id = $1 FOR UPDATE`, id))

	if err != nil {
		return correction.Correction{}, err
	}

	if c.Status != correction.StatusPending {
		return correction.Correction{}, correction.ErrNotPending
	}

	status := correction.StatusRejected

	if approve {
		status = correction.StatusApproved
	}

	var reviewNote *string

	if note != "" {
		reviewNote = &note
	}

	c, err = scanCorrection(tx.QueryRow(ctx, `
		UPDATE corrections
		SET status = $2,
		    reviewed_by = $3,
		    reviewed_at = NOW(),
		    review_note = $4,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING `+correctionColumns,
		id, string(status), reviewerID, reviewNote,
	))

	if err != nil {
		return correction.Correction{}, err
	}

	if approve {
		err = applyCorrectionTx(ctx, tx, c.EntryID, c.ProposedClockIn, c.ProposedClockOut)

		if err != nil {
			return correction.Correction{}, err
		}
	}

	err = tx.Commit(ctx)

	if err != nil {
		return correction.Correction{}, err
	}

	return c, nil
}
