package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tempushr/tempus/internal/domain/timeentry"
	"github.com/tempushr/tempus/internal/utils"
)

type TimeEntriesRepo struct {
	pool *pgxpool.Pool
}

func NewTimeEntriesRepo(pool *pgxpool.Pool) *TimeEntriesRepo {
	return &TimeEntriesRepo{pool: pool}
}

const timeEntryColumns = `id, user_id, clock_in, clock_out, note, created_at, updated_at`

// ClockIn relies on the partial unique index on (user_id) WHERE
// clock_out IS NULL: a second open entry trips a unique violation.
func (r *TimeEntriesRepo) ClockIn(ctx context.Context, e timeentry.TimeEntry) (timeentry.TimeEntry, error) {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO time_entries (id, user_id, clock_in, clock_out, note, created_at, updated_at)
		VALUES ($1,$2,$3,NULL,$4,$5,$6)`,
		e.ID, e.UserID, e.ClockIn, e.Note, e.CreatedAt, e.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return timeentry.TimeEntry{}, timeentry.ErrAlreadyOpen
		}
		return timeentry.TimeEntry{}, err
	}

	return e, nil
}

// ClockOut closes the user's open entry, if any.
func (r *TimeEntriesRepo) ClockOut(ctx context.Context, userID string, at time.Time, note string) (timeentry.TimeEntry, error) {
	var e timeentry.TimeEntry

	err := r.pool.QueryRow(ctx, `
		UPDATE time_entries
		SET clock_out = $2,
		    note = CASE WHEN $3 <> '' THEN $3 ELSE note END,
		    updated_at = NOW()
		WHERE user_id = $1 AND clock_out IS NULL
		RETURNING `+timeEntryColumns,
		userID, at, note,
	).Scan(&e.ID, &e.UserID, &e.ClockIn, &e.ClockOut, &e.Note, &e.CreatedAt, &e.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return timeentry.TimeEntry{}, timeentry.ErrNoOpenEntry
		}
		return timeentry.TimeEntry{}, err
	}

	return e, nil
}

func (r *TimeEntriesRepo) GetByID(ctx context.Context, id string) (timeentry.TimeEntry, error) {
	var e timeentry.TimeEntry

	err := r.pool.QueryRow(ctx,
		`SELECT `+timeEntryColumns+` FROM time_entries WHERE id = $1`, id,
	).Scan(&e.ID, &e.UserID, &e.ClockIn, &e.ClockOut, &e.Note, &e.CreatedAt, &e.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return timeentry.TimeEntry{}, timeentry.ErrNotFound
		}
		return timeentry.TimeEntry{}, err
	}

	return e, nil
}

// ListCursor pages newest-first with a (clock_in, id) keyset cursor.
func (r *TimeEntriesRepo) ListCursor(
	ctx context.Context,
	filter timeentry.ListFilter,
	afterClockIn time.Time,
	afterID string,
) (items []timeentry.TimeEntry, nextCursor *string, hasMore bool, err error) {
	base := `SELECT ` + timeEntryColumns + ` FROM time_entries`

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

	if filter.From != nil {
		conds = append(conds, fmt.Sprintf("clock_in >= $%d", argsPos))
		args = append(args, *filter.From)
		argsPos++
	}

	if filter.To != nil {
		conds = append(conds, fmt.Sprintf("clock_in <= $%d", argsPos))
		args = append(args, *filter.To)
		argsPos++
	}

	// DESC keyset: fetch rows older than the cursor
	conds = append(conds, fmt.Sprintf("(clock_in, id) < ($%d, $%d)", argsPos, argsPos+1))
	args = append(args, afterClockIn, afterID)
	argsPos += 2

	q := base + " WHERE " + strings.Join(conds, " AND ")

	limit := filter.Limit

	if limit <= 0 {
		limit = 25
	}

	q += fmt.Sprintf(" ORDER BY clock_in DESC, id DESC LIMIT $%d", argsPos)
	args = append(args, limit+1)

	rows, err := r.pool.Query(ctx, q, args...)

	if err != nil {
		return nil, nil, false, err
	}

	defer rows.Close()

	out := make([]timeentry.TimeEntry, 0, limit)

	for rows.Next() {
		var e timeentry.TimeEntry

		if scanErr := rows.Scan(&e.ID, &e.UserID, &e.ClockIn, &e.ClockOut, &e.Note, &e.CreatedAt, &e.UpdatedAt); scanErr != nil {
			return nil, nil, false, scanErr
		}

		out = append(out, e)
	}

	if rows.Err() != nil {
		return nil, nil, false, rows.Err()
	}

	if len(out) > limit {
		hasMore = true
		out = out[:limit]
		last := out[len(out)-1]

		cur, encErr := utils.EncodeTimeEntryCursor(last.ClockIn, last.ID)
		if encErr != nil {
			return nil, nil, false, encErr
		}
		nextCursor = &cur
	}

	return out, nextCursor, hasMore, nil
}

// applyCorrectionTx rewrites an entry's times inside a caller-owned
// transaction (correction approval).
func applyCorrectionTx(ctx context.Context, tx pgx.Tx, entryID string, clockIn, clockOut time.Time) error {
	tag, err := tx.Exec(ctx, `
		UPDATE time_entries
		SET clock_in = $2, clock_out = $3, updated_at = NOW()
		WHERE id = $1
	`, entryID, clockIn, clockOut)

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return timeentry.ErrNotFound
	}

	return nil
}
