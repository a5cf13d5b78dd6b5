package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/geocoder89/labhub/internal/actorctx"
	"github.com/geocoder89/labhub/internal/auth"
	"github.com/geocoder89/labhub/internal/authz"
	"github.com/geocoder89/labhub/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type PrincipalResolver interface {
	Resolve(ctx context.Context, token string) (authz.Principal, error)
}

// DenialRecorder counts guard rejections.
type DenialRecorder interface {
	GuardDenied(permission string, status int)
}

type AuthMiddleware struct {
	resolver PrincipalResolver
	checker  authz.Checker
	denials  DenialRecorder
}

func NewAuthMiddleware(resolver PrincipalResolver) *AuthMiddleware {
	return &AuthMiddleware{
		resolver: resolver,
		checker:  authz.Default,
	}
}

func (m *AuthMiddleware) WithDenialRecorder(r DenialRecorder) *AuthMiddleware {
	m.denials = r
	return m
}

// BearerToken pulls the token out of "Authorization: Bearer <t>". The
// "Token <t>" scheme is accepted as well.
func BearerToken(header string) (string, bool) {
	scheme, raw, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok {
		return "", false
	}

	if !strings.EqualFold(scheme, "Bearer") && !strings.EqualFold(scheme, "Token") {
		return "", false
	}

	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := BearerToken(c.GetHeader("Authorization"))
		if !ok {
			m.deny(c, "", http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}

		p, err := m.resolver.Resolve(c.Request.Context(), raw)
		if err != nil {
			if errors.Is(err, auth.ErrUnauthenticated) {
				m.deny(c, "", http.StatusUnauthorized, "Invalid or expired token.")
				return
			}

			slog.Default().ErrorContext(c.Request.Context(), "resolve principal failed", "err", err)
			handlers.AbortError(c, http.StatusInternalServerError, "internal_error", "Could not authenticate request")
			return
		}

		// Stash the identity on both contexts
		c.Set(CtxPrincipal, p)
		c.Set(CtxUserID, p.UserID)
		c.Request = c.Request.WithContext(actorctx.WithPrincipal(c.Request.Context(), p))

		c.Next()
	}
}

// Optional helpers so handlers don't need to know the magic keys.

func PrincipalFromContext(c *gin.Context) (authz.Principal, bool) {
	v, ok := c.Get(CtxPrincipal)
	if !ok {
		return authz.Principal{}, false
	}
	p, ok := v.(authz.Principal)
	return p, ok && p.UserID != ""
}

func UserIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(CtxUserID)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

func (m *AuthMiddleware) deny(c *gin.Context, perm string, status int, message string) {
	if m.denials != nil {
		m.denials.GuardDenied(perm, status)
	}

	if status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", `Bearer realm="api"`)
		handlers.AbortError(c, status, "unauthorized", message)
		return
	}

	handlers.AbortError(c, status, "forbidden", message)
}
