package security

import "golang.org/x/crypto/bcrypt"

// bcrypt truncates at 72 bytes; request validation caps passwords there
// so no silent truncation happens.
const hashCost = bcrypt.DefaultCost

func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), hashCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword returns nil when plain matches the stored hash; bcrypt
// does the constant-time comparison internally.
func CheckPassword(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}
