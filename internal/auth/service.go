package auth

import (
	"context"
	"errors"
	"time"

	"github.com/tempushr/tempus/internal/domain/user"
	"github.com/tempushr/tempus/internal/security"
)

// Keep these interfaces small so tests can fake them easily.

type UserStore interface {
	GetByID(ctx context.Context, id string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
}

type RefreshTokenStore interface {
	Save(ctx context.Context, userID, hash string, expiresAt time.Time) error

	// Rotate atomically revokes the row matching oldHash and inserts
	// newHash for the same user, returning the owner. It must only
	// match live rows (not revoked, not expired) and must run as a
	// single transactional unit so one token can never be used twice.
	Rotate(ctx context.Context, oldHash, newHash string, expiresAt time.Time) (userID string, err error)

	// Revoke is idempotent; revoking an unknown or already revoked
	// hash is not an error.
	Revoke(ctx context.Context, hash string) error

	RevokeAllForUser(ctx context.Context, userID string) error
}

// Session is what a successful login or refresh hands back.
type Session struct {
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	User         user.Public `json:"user"`
}

type Service struct {
	codec  *Codec
	users  UserStore
	tokens RefreshTokenStore
}

func NewService(codec *Codec, users UserStore, tokens RefreshTokenStore) *Service {
	return &Service{codec: codec, users: users, tokens: tokens}
}

func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	u, err := s.users.GetByEmail(ctx, email)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}

	if !u.Active {
		return Session{}, ErrInvalidCredentials
	}

	err = security.CheckPassword(u.PasswordHash, password)

	if err != nil {
		return Session{}, ErrInvalidCredentials
	}

	return s.issue(ctx, u)
}

// Refresh rotates the presented token: the old hash is revoked and a
// new pair issued in one store transaction. A second call with the
// same raw token finds no live row and fails.
func (s *Service) Refresh(ctx context.Context, raw string) (Session, error) {
	if raw == "" {
		return Session{}, ErrInvalidRefreshToken
	}

	newRaw, expiresAt, err := s.codec.GenerateRefreshToken()

	if err != nil {
		return Session{}, err
	}

	userID, err := s.tokens.Rotate(ctx, s.codec.HashToken(raw), s.codec.HashToken(newRaw), expiresAt)

	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return Session{}, ErrInvalidRefreshToken
		}
		return Session{}, err
	}

	u, err := s.users.GetByID(ctx, userID)

	if err != nil || !u.Active {
		// the rotation already burned the token; a vanished or
		// deactivated owner is indistinguishable from a bad token
		return Session{}, ErrInvalidRefreshToken
	}

	accessToken, err := s.codec.SignAccessToken(u)

	if err != nil {
		return Session{}, err
	}

	return Session{AccessToken: accessToken, RefreshToken: newRaw, User: u.Public()}, nil
}

// Logout is idempotent: the desired end state is "token not valid",
// which already holds for unknown or previously revoked tokens.
func (s *Service) Logout(ctx context.Context, raw string) error {
	if raw == "" {
		return nil
	}

	err := s.tokens.Revoke(ctx, s.codec.HashToken(raw))

	if err != nil && !errors.Is(err, ErrTokenNotFound) {
		return err
	}

	return nil
}

func (s *Service) Profile(ctx context.Context, userID string) (user.Public, error) {
	u, err := s.users.GetByID(ctx, userID)

	if err != nil {
		return user.Public{}, err
	}

	return u.Public(), nil
}

// UpdatePassword re-hashes and persists. Outstanding access tokens
// stay valid until they expire (bounded by the access TTL); refresh
// tokens are revoked so the old credential cannot mint new ones.
func (s *Service) UpdatePassword(ctx context.Context, userID, newPassword string) error {
	hash, err := security.HashPassword(newPassword)

	if err != nil {
		return err
	}

	err = s.users.UpdatePasswordHash(ctx, userID, hash)

	if err != nil {
		return err
	}

	return s.tokens.RevokeAllForUser(ctx, userID)
}

func (s *Service) issue(ctx context.Context, u user.User) (Session, error) {
	accessToken, err := s.codec.SignAccessToken(u)

	if err != nil {
		return Session{}, err
	}

	rawRefresh, expiresAt, err := s.codec.GenerateRefreshToken()

	if err != nil {
		return Session{}, err
	}

	err = s.tokens.Save(ctx, u.ID, s.codec.HashToken(rawRefresh), expiresAt)

	if err != nil {
		return Session{}, err
	}

	return Session{AccessToken: accessToken, RefreshToken: rawRefresh, User: u.Public()}, nil
}
