package memory

import (
	"context"
	"sync"
	"time"

	"github.com/geocoder89/labhub/internal/domain/session"
	"github.com/google/uuid"
)

// SessionsRepo keeps at most one session per user, like the auth_tokens table.
type SessionsRepo struct {
	mu     sync.Mutex
	byID   map[string]session.Session
	byUser map[string]string
}

func NewSessionsRepo() *SessionsRepo {
	return &SessionsRepo{
		byID:   make(map[string]session.Session),
		byUser: make(map[string]string),
	}
}

func (r *SessionsRepo) IssueOrReuse(_ context.Context, userID string, now time.Time, ttl time.Duration) (session.Session, error) {
	now = now.UTC().Truncate(time.Second)

	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byUser[userID]; ok {
		s := r.byID[id]
		if !s.Expired(now) {
			return s, nil
		}
		delete(r.byID, id)
	}

	s := session.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
	r.byID[s.ID] = s
	r.byUser[userID] = s.ID

	return s, nil
}

func (r *SessionsRepo) Get(_ context.Context, id string) (session.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[id]
	if !ok {
		return session.Session{}, session.ErrNotFound
	}
	return s, nil
}

func (r *SessionsRepo) GetByUser(_ context.Context, userID string) (session.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byUser[userID]
	if !ok {
		return session.Session{}, session.ErrNotFound
	}
	return r.byID[id], nil
}

func (r *SessionsRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[id]
	if !ok {
		return session.ErrNotFound
	}
	delete(r.byID, id)
	delete(r.byUser, s.UserID)
	return nil
}

func (r *SessionsRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, s := range r.byID {
		if s.Expired(now) {
			delete(r.byID, id)
			delete(r.byUser, s.UserID)
			n++
		}
	}
	return n, nil
}
