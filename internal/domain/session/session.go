package session

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("session not found")

// Session is the single live bearer token row of a user.
type Session struct {
	ID        string
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
