package utils

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLen is the shortest password accepted at registration.
const MinPasswordLen = 8

// ErrWeakPassword is returned by ValidatePassword.
var ErrWeakPassword = errors.New("password must be at least 8 characters")

// ValidatePassword checks registration password rules.
func ValidatePassword(plain string) error {
	if len(plain) < MinPasswordLen {
		return ErrWeakPassword
	}
	return nil
}

// HashPassword returns a bcrypt hash.  Costs outside bcrypt's range fall
// back to bcrypt.DefaultCost.
func HashPassword(plain string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
