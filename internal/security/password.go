package security

import (
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the most bcrypt will hash. Longer input is rejected, not
// truncated.
const MaxPasswordBytes = 72

var (
	ErrBlankPassword   = errors.New("blank password")
	ErrPasswordTooLong = errors.New("password longer than 72 bytes")
)

// Hash password hashes a plain text password with bcrypt.
func HashPassword(plain string) (string, error) {
	if plain == "" {
		return "", ErrBlankPassword
	}
	if len(plain) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)

	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", ErrPasswordTooLong
	}
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// helper that compares a bcrypt hash with a plaintext password.
// A blank password never matches, whatever the stored hash.
func CheckPassword(hash, plain string) error {
	if plain == "" {
		return ErrBlankPassword
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}

var (
	dummyOnce sync.Once
	dummyHash []byte
)

// BurnCompare spends the same bcrypt work as a real check. It is used when the
// account does not exist so the response time does not reveal that.
func BurnCompare(plain string) {
	dummyOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("labhub-dummy-password"), bcrypt.DefaultCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(plain))
}
