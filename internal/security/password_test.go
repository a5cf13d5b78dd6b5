package security_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/geocoder89/labhub/internal/security"
)

func TestHashAndCheck(t *testing.T) {
	hash, err := security.HashPassword("testpass123")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	if hash == "testpass123" {
		t.Fatalf("hash must not equal the plaintext")
	}

	if err := security.CheckPassword(hash, "testpass123"); err != nil {
		t.Fatalf("expected match, got %v", err)
	}

	if err := security.CheckPassword(hash, "wrong"); err == nil {
		t.Fatalf("expected mismatch")
	}
}

func TestBlankPasswordRejected(t *testing.T) {
	if _, err := security.HashPassword(""); !errors.Is(err, security.ErrBlankPassword) {
		t.Fatalf("HashPassword(\"\") err = %v", err)
	}

	hash, _ := security.HashPassword("x")
	if err := security.CheckPassword(hash, ""); !errors.Is(err, security.ErrBlankPassword) {
		t.Fatalf("CheckPassword blank err = %v", err)
	}
}

func TestPasswordLengthCountsBytes(t *testing.T) {
	// 40 runes, 80 bytes
	long := strings.Repeat("é", 40)
	if _, err := security.HashPassword(long); !errors.Is(err, security.ErrPasswordTooLong) {
		t.Fatalf("HashPassword(80 bytes) err = %v", err)
	}

	if _, err := security.HashPassword(strings.Repeat("é", 36)); err != nil {
		t.Fatalf("HashPassword(72 bytes): %v", err)
	}
}
