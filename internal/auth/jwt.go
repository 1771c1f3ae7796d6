package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/tempushr/tempus/internal/domain/user"
)

type Claims struct {
	Email   string `json:"email"`
	Nombre  string `json:"nombre"`
	Role    string `json:"role"`
	IsAdmin bool   `json:"isAdmin"`
	jwt.RegisteredClaims
}

func (c *Claims) UserID() string {
	return c.Subject
}

// Codec signs and verifies short-lived access tokens and mints the
// opaque long-lived refresh tokens (see refresh.go).
type Codec struct {
	secret        []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewCodec(secret, refreshSecret string, accessTTL, refreshTTL time.Duration) *Codec {
	return &Codec{
		secret:        []byte(secret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// SignAccessToken encodes the user's identity as it stands right now.
// Revocation is not encoded here: the auth middleware re-checks the
// user against the store on every request.
func (c *Codec) SignAccessToken(u user.User) (string, error) {
	now := time.Now().UTC()

	claims := Claims{
		Email:   u.Email,
		Nombre:  u.Nombre,
		Role:    u.Role,
		IsAdmin: u.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.accessTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(c.secret)
}

// VerifyAccessToken collapses every failure (bad signature, garbage
// input, expiry) into ErrInvalidToken.
func (c *Codec) VerifyAccessToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		// Enforce HS256

		_, ok := t.Method.(*jwt.SigningMethodHMAC)

		if !ok {
			return nil, errors.New("unexpected signing method")
		}
		return c.secret, nil
	})

	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)

	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
