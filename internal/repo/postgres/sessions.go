package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/labhub/internal/domain/session"
	"github.com/geocoder89/labhub/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SessionsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewSessionsRepo(pool *pgxpool.Pool, prom *observability.Prom) *SessionsRepo {
	return &SessionsRepo{pool: pool, prom: prom}
}

func (r *SessionsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func scanSession(row pgx.Row) (session.Session, error) {
	var s session.Session
	err := row.Scan(&s.ID, &s.UserID, &s.IssuedAt, &s.ExpiresAt)
	return s, err
}

// IssueOrReuse returns the user's live session, replacing it first when it has
// expired. One statement, so concurrent logins of the same user all see the
// same row.
func (r *SessionsRepo) IssueOrReuse(ctx context.Context, userID string, now time.Time, ttl time.Duration) (session.Session, error) {
	now = now.UTC().Truncate(time.Second)

	var s session.Session
	err := r.observe("sessions.issue_or_reuse", func() error {
		var err error
		s, err = scanSession(r.pool.QueryRow(ctx, `
			INSERT INTO auth_tokens (id, user_id, issued_at, expires_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (user_id) DO UPDATE SET
				id         = CASE WHEN auth_tokens.expires_at <= $3 THEN EXCLUDED.id ELSE auth_tokens.id END,
				issued_at  = CASE WHEN auth_tokens.expires_at <= $3 THEN EXCLUDED.issued_at ELSE auth_tokens.issued_at END,
				expires_at = CASE WHEN auth_tokens.expires_at <= $3 THEN EXCLUDED.expires_at ELSE auth_tokens.expires_at END
			RETURNING id, user_id, issued_at, expires_at`,
			uuid.NewString(), userID, now, now.Add(ttl),
		))
		return err
	})

	return s, err
}

func (r *SessionsRepo) Get(ctx context.Context, id string) (session.Session, error) {
	var s session.Session

	err := r.observe("sessions.get", func() error {
		var err error
		s, err = scanSession(r.pool.QueryRow(ctx, `SELECT id, user_id, issued_at, expires_at FROM auth_tokens WHERE id = $1`, id))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidText(err) {
			return session.Session{}, session.ErrNotFound
		}
		return session.Session{}, err
	}

	return s, nil
}

func (r *SessionsRepo) GetByUser(ctx context.Context, userID string) (session.Session, error) {
	var s session.Session

	err := r.observe("sessions.get_by_user", func() error {
		var err error
		s, err = scanSession(r.pool.QueryRow(ctx, `SELECT id, user_id, issued_at, expires_at FROM auth_tokens WHERE user_id = $1`, userID))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidText(err) {
			return session.Session{}, session.ErrNotFound
		}
		return session.Session{}, err
	}

	return s, nil
}

func (r *SessionsRepo) Delete(ctx context.Context, id string) error {
	var affected int64

	err := r.observe("sessions.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM auth_tokens WHERE id = $1`, id)
		if err != nil {
			return err
		}
		affected = tag.RowsAffected()
		return nil
	})

	if err != nil {
		if isInvalidText(err) {
			return session.ErrNotFound
		}
		return err
	}

	if affected == 0 {
		return session.ErrNotFound
	}

	return nil
}

// DeleteExpired removes sessions that can no longer be resolved.
func (r *SessionsRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var affected int64

	err := r.observe("sessions.delete_expired", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM auth_tokens WHERE expires_at <= $1`, now.UTC())
		if err != nil {
			return err
		}
		affected = tag.RowsAffected()
		return nil
	})

	return affected, err
}
