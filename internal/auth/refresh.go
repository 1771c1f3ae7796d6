package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// refresh tokens are opaque: clients get a hex string with no internal
// structure to rely on.
const refreshTokenBytes = 48

// GenerateRefreshToken produces a fresh random token and its absolute
// expiration. The raw value is handed to the caller exactly once; only
// HashToken output is ever persisted.
func (c *Codec) GenerateRefreshToken() (raw string, expiresAt time.Time, err error) {
	buf := make([]byte, refreshTokenBytes)

	_, err = rand.Read(buf)

	if err != nil {
		return "", time.Time{}, err
	}

	raw = hex.EncodeToString(buf)
	expiresAt = time.Now().UTC().Add(c.refreshTTL)

	return raw, expiresAt, nil
}

// HashToken is the deterministic one-way digest used both to persist a
// refresh token and to look it up later (server-side pepper = refresh
// secret bytes).
func (c *Codec) HashToken(raw string) string {
	h := hmac.New(sha256.New, c.refreshSecret)
	h.Write([]byte(raw))
	return hex.EncodeToString(h.Sum(nil))
}
