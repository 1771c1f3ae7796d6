package observability

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// ObserveDB times a repository call and records duration plus a coarse
// error class. Repositories label operations dot-qualified, e.g.
// "jobs.claim_next".
func (p *Prom) ObserveDB(op string, fn func() error) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	if err != nil {
		p.DbErrorsTotal.WithLabelValues(op, dbErrorClass(err)).Inc()
		p.DbQueryDuration.WithLabelValues(op, "error").Observe(elapsed.Seconds())
		return err
	}

	p.DbQueryDuration.WithLabelValues(op, "ok").Observe(elapsed.Seconds())
	return nil
}

// Postgres error codes this schema can realistically produce: the
// unique open-entry index, role/kind/status CHECK constraints and the
// refresh-token/user foreign keys.
func dbErrorClass(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return "unique_violation"
		case "23503":
			return "foreign_key_violation"
		case "23514":
			return "check_violation"
		case "40001":
			return "serialization_failure"
		case "40P01":
			return "deadlock"
		case "57014":
			return "query_canceled"
		default:
			return "pg_" + pgErr.Code
		}
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "other"
	}
}
