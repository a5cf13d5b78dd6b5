package auth

import (
	"testing"
	"time"

	"github.com/geocoder89/labhub/internal/domain/session"
)

func testSession(now time.Time) session.Session {
	return session.Session{
		ID:        "6f1f4a5e-1111-4c1e-9a3c-000000000001",
		UserID:    "6f1f4a5e-2222-4c1e-9a3c-000000000002",
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Hour),
	}
}

func TestSignIsDeterministic(t *testing.T) {
	m := NewManager("test-secret")
	s := testSession(time.Now().UTC())

	a, err := m.Sign(s)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	// sub-second noise must not change the token
	s.IssuedAt = s.IssuedAt.Add(300 * time.Microsecond)
	b, err := m.Sign(s)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	if a != b {
		t.Fatalf("expected identical tokens for the same session")
	}
}

func TestVerifyRoundTrip(t *testing.T) {
	m := NewManager("test-secret")
	s := testSession(time.Now().UTC())

	raw, _ := m.Sign(s)

	claims, err := m.Verify(raw)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}

	if claims.ID != s.ID || claims.Subject != s.UserID {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestVerifyRejects(t *testing.T) {
	now := time.Now().UTC()
	m := NewManager("test-secret")

	raw, _ := m.Sign(testSession(now))

	other := NewManager("other-secret")
	if _, err := other.Verify(raw); err == nil {
		t.Fatalf("expected signature failure")
	}

	m.now = func() time.Time { return now.Add(2 * time.Hour) }
	if _, err := m.Verify(raw); err == nil {
		t.Fatalf("expected expiry failure")
	}

	if _, err := m.Verify("not-a-token"); err == nil {
		t.Fatalf("expected parse failure")
	}
}

func TestSignRequiresIdentity(t *testing.T) {
	m := NewManager("test-secret")

	if _, err := m.Sign(session.Session{}); err == nil {
		t.Fatalf("expected error for empty session")
	}
}
