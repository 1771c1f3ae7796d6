package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/tempushr/tempus/internal/auth"
	"github.com/tempushr/tempus/internal/domain/user"
)

type tokenRow struct {
	userID    string
	expiresAt time.Time
	revokedAt *time.Time
}

// AuthStore is an in-memory credential store. Handy for unit tests and
// local hacking; the mutex makes Rotate a single atomic unit, matching
// the transactional guarantee the postgres store gives.
type AuthStore struct {
	mu      sync.Mutex
	users   map[string]user.User
	byEmail map[string]string
	tokens  map[string]tokenRow
}

func NewAuthStore() *AuthStore {
	return &AuthStore{
		users:   make(map[string]user.User),
		byEmail: make(map[string]string),
		tokens:  make(map[string]tokenRow),
	}
}

func (s *AuthStore) PutUser(u user.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users[u.ID] = u
	s.byEmail[strings.ToLower(u.Email)] = u.ID
}

func (s *AuthStore) GetByID(_ context.Context, id string) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]

	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return u, nil
}

func (s *AuthStore) GetByEmail(_ context.Context, email string) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[strings.ToLower(email)]

	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return s.users[id], nil
}

func (s *AuthStore) UpdatePasswordHash(_ context.Context, id, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]

	if !ok {
		return user.ErrNotFound
	}

	u.PasswordHash = hash
	u.UpdatedAt = time.Now().UTC()
	s.users[id] = u

	return nil
}

func (s *AuthStore) Save(_ context.Context, userID, hash string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[hash] = tokenRow{userID: userID, expiresAt: expiresAt}

	return nil
}

func (s *AuthStore) Rotate(_ context.Context, oldHash, newHash string, expiresAt time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.tokens[oldHash]

	if !ok || row.revokedAt != nil || time.Now().UTC().After(row.expiresAt) {
		return "", auth.ErrTokenNotFound
	}

	now := time.Now().UTC()
	row.revokedAt = &now
	s.tokens[oldHash] = row

	s.tokens[newHash] = tokenRow{userID: row.userID, expiresAt: expiresAt}

	return row.userID, nil
}

func (s *AuthStore) Revoke(_ context.Context, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.tokens[hash]

	if !ok || row.revokedAt != nil {
		// already in the desired state
		return nil
	}

	now := time.Now().UTC()
	row.revokedAt = &now
	s.tokens[hash] = row

	return nil
}

func (s *AuthStore) RevokeAllForUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()

	for hash, row := range s.tokens {
		if row.userID == userID && row.revokedAt == nil {
			row.revokedAt = &now
			s.tokens[hash] = row
		}
	}

	return nil
}

// LiveTokenCount reports unrevoked, unexpired rows for a user.
// Test helper.
func (s *AuthStore) LiveTokenCount(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	now := time.Now().UTC()

	for _, row := range s.tokens {
		if row.userID == userID && row.revokedAt == nil && now.Before(row.expiresAt) {
			n++
		}
	}

	return n
}
