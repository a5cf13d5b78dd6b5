package actorctx

import (
	"context"
	"testing"

	"github.com/geocoder89/labhub/internal/authz"
)

func TestPrincipalRoundTrip(t *testing.T) {
	ctx := context.Background()

	if _, ok := PrincipalFrom(ctx); ok {
		t.Fatalf("empty context should carry no principal")
	}

	ctx = WithPrincipal(ctx, authz.Principal{UserID: "u-1", Email: "a@example.com"})

	p, ok := PrincipalFrom(ctx)
	if !ok || p.Email != "a@example.com" {
		t.Fatalf("unexpected principal %+v ok=%v", p, ok)
	}

	id, ok := UserIDFrom(ctx)
	if !ok || id != "u-1" {
		t.Fatalf("got user id %q ok=%v", id, ok)
	}
}

func TestEmptyPrincipalIsIgnored(t *testing.T) {
	ctx := WithPrincipal(context.Background(), authz.Principal{})

	if _, ok := UserIDFrom(ctx); ok {
		t.Fatalf("principal without id should not count")
	}
}
