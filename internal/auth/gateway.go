package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/geocoder89/labhub/internal/authz"
	"github.com/geocoder89/labhub/internal/domain/session"
	"github.com/geocoder89/labhub/internal/domain/user"
	"github.com/geocoder89/labhub/internal/security"
)

var (
	ErrInvalidCredentials = errors.New("unable to log in with provided credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
)

type UserReader interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

type PrincipalLoader interface {
	LoadPrincipal(ctx context.Context, userID string) (authz.Principal, error)
}

type SessionStore interface {
	IssueOrReuse(ctx context.Context, userID string, now time.Time, ttl time.Duration) (session.Session, error)
	Get(ctx context.Context, id string) (session.Session, error)
	GetByUser(ctx context.Context, userID string) (session.Session, error)
	Delete(ctx context.Context, id string) error
}

type PrincipalCache interface {
	Get(ctx context.Context, key string) (authz.Principal, bool, error)
	Set(ctx context.Context, key string, p authz.Principal, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// AttemptRecorder receives the outcome of every Authenticate call.
type AttemptRecorder interface {
	AuthAttempt(result string)
}

type GatewayConfig struct {
	TokenTTL time.Duration
	CacheTTL time.Duration
}

type Gateway struct {
	users      UserReader
	principals PrincipalLoader
	sessions   SessionStore
	tokens     *Manager
	cache      PrincipalCache
	attempts   AttemptRecorder
	cfg        GatewayConfig
	now        func() time.Time
}

func NewGateway(users UserReader, principals PrincipalLoader, sessions SessionStore, tokens *Manager, cache PrincipalCache, cfg GatewayConfig) *Gateway {
	return &Gateway{
		users:      users,
		principals: principals,
		sessions:   sessions,
		tokens:     tokens,
		cache:      cache,
		cfg:        cfg,
		now:        time.Now,
	}
}

func (g *Gateway) WithAttemptRecorder(r AttemptRecorder) *Gateway {
	g.attempts = r
	return g
}

// Authenticate exchanges an email and password for a bearer token. Every
// credential failure is reported as ErrInvalidCredentials.
func (g *Gateway) Authenticate(ctx context.Context, email, password string) (string, error) {
	if password == "" {
		g.record("blank_password")
		return "", ErrInvalidCredentials
	}

	u, err := g.users.GetByEmail(ctx, user.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			security.BurnCompare(password)
			g.record("unknown_user")
			return "", ErrInvalidCredentials
		}
		g.record("error")
		return "", fmt.Errorf("lookup user: %w", err)
	}

	if err := security.CheckPassword(u.PasswordHash, password); err != nil {
		g.record("bad_password")
		return "", ErrInvalidCredentials
	}

	if !u.IsActive {
		g.record("inactive")
		return "", ErrInvalidCredentials
	}

	s, err := g.sessions.IssueOrReuse(ctx, u.ID, g.now().UTC(), g.cfg.TokenTTL)
	if err != nil {
		g.record("error")
		return "", fmt.Errorf("issue session: %w", err)
	}

	token, err := g.tokens.Sign(s)
	if err != nil {
		g.record("error")
		return "", fmt.Errorf("sign token: %w", err)
	}

	g.record("success")
	return token, nil
}

// Resolve maps a bearer token back to the principal it was issued to.
func (g *Gateway) Resolve(ctx context.Context, token string) (authz.Principal, error) {
	claims, err := g.tokens.Verify(token)
	if err != nil {
		return authz.Principal{}, ErrUnauthenticated
	}

	key := cacheKey(claims.ID)

	p, ok, err := g.cache.Get(ctx, key)
	if err != nil {
		slog.Default().WarnContext(ctx, "principal cache read failed", "err", err)
	} else if ok {
		return p, nil
	}

	s, err := g.sessions.Get(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return authz.Principal{}, ErrUnauthenticated
		}
		return authz.Principal{}, fmt.Errorf("load session: %w", err)
	}

	now := g.now()
	if s.UserID != claims.Subject || s.Expired(now) {
		return authz.Principal{}, ErrUnauthenticated
	}

	p, err = g.principals.LoadPrincipal(ctx, s.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return authz.Principal{}, ErrUnauthenticated
		}
		return authz.Principal{}, fmt.Errorf("load principal: %w", err)
	}

	if !p.IsActive {
		return authz.Principal{}, ErrUnauthenticated
	}

	ttl := g.cfg.CacheTTL
	if left := s.ExpiresAt.Sub(now); left < ttl {
		ttl = left
	}

	if ttl > 0 {
		if err := g.cache.Set(ctx, key, p, ttl); err != nil {
			slog.Default().WarnContext(ctx, "principal cache write failed", "err", err)
		}
	}

	return p, nil
}

// Revoke deletes the session behind a token. Unknown or invalid tokens are a no-op.
func (g *Gateway) Revoke(ctx context.Context, token string) error {
	claims, err := g.tokens.Verify(token)
	if err != nil {
		return nil
	}

	return g.dropSession(ctx, claims.ID)
}

// RevokeUser deletes whatever live session the user holds.
func (g *Gateway) RevokeUser(ctx context.Context, userID string) error {
	s, err := g.sessions.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil
		}
		return err
	}

	return g.dropSession(ctx, s.ID)
}

// Forget drops the cached principal of a user so the next request reloads it.
func (g *Gateway) Forget(ctx context.Context, userID string) error {
	s, err := g.sessions.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil
		}
		return err
	}

	return g.cache.Delete(ctx, cacheKey(s.ID))
}

// dropSession clears the cached principal, deletes the session row, then clears
// the cache again in case a concurrent Resolve refilled it. A cache hit never
// consults the row, so a failed cache delete is a failed revocation. The row
// is kept on the first failure so a retry can still find it.
func (g *Gateway) dropSession(ctx context.Context, id string) error {
	key := cacheKey(id)

	if err := g.cache.Delete(ctx, key); err != nil {
		return fmt.Errorf("drop cached principal: %w", err)
	}

	err := g.sessions.Delete(ctx, id)
	if err != nil && !errors.Is(err, session.ErrNotFound) {
		return err
	}

	if err := g.cache.Delete(ctx, key); err != nil {
		return fmt.Errorf("drop cached principal: %w", err)
	}

	return nil
}

func (g *Gateway) record(result string) {
	if g.attempts != nil {
		g.attempts.AuthAttempt(result)
	}
}

func cacheKey(sessionID string) string {
	return "principal:" + sessionID
}
