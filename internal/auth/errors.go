package auth

import "errors"

var (
	// ErrInvalidCredentials is deliberately generic: unknown email,
	// deactivated account and wrong password all surface the same way
	// so login cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("email or password is incorrect")

	// single failure kind for malformed, tampered and expired access tokens
	ErrInvalidToken = errors.New("invalid or expired access token")

	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	// ErrTokenNotFound is returned by refresh-token stores when no live
	// row matches a hash. The service maps it to ErrInvalidRefreshToken.
	ErrTokenNotFound = errors.New("refresh token not found")
)
