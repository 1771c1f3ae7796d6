package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tempushr/tempus/internal/auth"
)

// RefreshTokensRepo persists refresh tokens hash-first: the raw token
// never reaches this layer, only its HMAC digest.
type RefreshTokensRepo struct {
	pool *pgxpool.Pool
}

func NewRefreshTokensRepo(pool *pgxpool.Pool) *RefreshTokensRepo {
	return &RefreshTokensRepo{pool: pool}
}

func (r *RefreshTokensRepo) Save(ctx context.Context, userID, hash string, expiresAt time.Time) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO refresh_tokens (token_hash, user_id, expires_at, revoked_at, replaced_by, created_at)
		VALUES ($1, $2, $3, NULL, NULL, NOW())`,
		hash, userID, expiresAt,
	)

	return err
}

// Rotate revokes the presented hash and inserts the replacement in one
// transaction. The FOR UPDATE lock serializes concurrent refreshes on
// the same token, so exactly one of them wins.
func (r *RefreshTokensRepo) Rotate(ctx context.Context, oldHash, newHash string, expiresAt time.Time) (string, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})

	if err != nil {
		return "", err
	}

	defer func() { _ = tx.Rollback(ctx) }()

	var userID string

	err = tx.QueryRow(ctx, `
		SELECT user_id
		FROM refresh_tokens
		WHERE token_hash = $1
		  AND revoked_at IS NULL
		  AND expires_at > NOW()
		FOR UPDATE
	`, oldHash).Scan(&userID)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", auth.ErrTokenNotFound
		}
		return "", err
	}

	_, err = tx.Exec(ctx, `
		UPDATE refresh_tokens
		SET revoked_at = NOW(), replaced_by = $2
		WHERE token_hash = $1
	`, oldHash, newHash)

	if err != nil {
		return "", err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO refresh_tokens (token_hash, user_id, expires_at, revoked_at, replaced_by, created_at)
		VALUES ($1, $2, $3, NULL, NULL, NOW())
	`, newHash, userID, expiresAt)

	if err != nil {
		return "", err
	}

	err = tx.Commit(ctx)

	if err != nil {
		return "", err
	}

	return userID, nil
}

// Revoke stamps revoked_at only when it is still NULL, so the first
// revocation time survives repeated logouts.
func (r *RefreshTokensRepo) Revoke(ctx context.Context, hash string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE refresh_tokens
		SET revoked_at = NOW()
		WHERE token_hash = $1 AND revoked_at IS NULL
	`, hash)

	return err
}

func (r *RefreshTokensRepo) RevokeAllForUser(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE refresh_tokens
		SET revoked_at = NOW()
		WHERE user_id = $1 AND revoked_at IS NULL
	`, userID)

	return err
}

// FindValid looks up a live (unrevoked, unexpired) row by hash.
func (r *RefreshTokensRepo) FindValid(ctx context.Context, hash string) (userID string, expiresAt time.Time, err error) {
	err = r.pool.QueryRow(ctx, `
		SELECT user_id, expires_at
		FROM refresh_tokens
		WHERE token_hash = $1
		  AND revoked_at IS NULL
		  AND expires_at > NOW()
	`, hash).Scan(&userID, &expiresAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", time.Time{}, auth.ErrTokenNotFound
		}
		return "", time.Time{}, err
	}

	return userID, expiresAt, nil
}

// DeleteExpired prunes rows whose expiry passed more than the grace
// window ago. Called from the worker on a timer.
func (r *RefreshTokensRepo) DeleteExpired(ctx context.Context, grace time.Duration) (int64, error) {
	secs := int64(grace.Seconds())

	if secs < 0 {
		secs = 0
	}

	tag, err := r.pool.Exec(ctx, `
		DELETE FROM refresh_tokens
		WHERE expires_at < NOW() - ($1 * INTERVAL '1 second')
	`, secs)

	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}
