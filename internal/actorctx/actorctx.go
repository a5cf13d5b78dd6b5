// Package actorctx carries the authenticated principal on a context.Context so
// code below the HTTP layer can see who is acting.
package actorctx

import (
	"context"

	"github.com/geocoder89/labhub/internal/authz"
)

type ctxKey struct{}

func WithPrincipal(ctx context.Context, p authz.Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

func PrincipalFrom(ctx context.Context) (authz.Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(authz.Principal)

	return p, ok && p.UserID != ""
}

func UserIDFrom(ctx context.Context) (string, bool) {
	p, ok := PrincipalFrom(ctx)
	if !ok {
		return "", false
	}

	return p.UserID, true
}
