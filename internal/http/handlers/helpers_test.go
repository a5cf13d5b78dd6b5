package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/geocoder89/labhub/internal/actorctx"
	"github.com/geocoder89/labhub/internal/authz"
	"github.com/geocoder89/labhub/internal/domain/role"
	"github.com/geocoder89/labhub/internal/repo/memory"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// asUser stands in for the auth middleware: it attaches a principal for id, or
// nothing when id is empty.
func asUser(id string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if id != "" {
			c := actorctx.WithPrincipal(ctx.Request.Context(), authz.Principal{UserID: id, IsActive: true})
			ctx.Request = ctx.Request.WithContext(c)
		}
		ctx.Next()
	}
}

func newUsersRepo(t *testing.T) *memory.UsersRepo {
	t.Helper()

	roles := memory.NewRolesRepo()
	for _, k := range role.All() {
		if _, err := roles.Ensure(context.Background(), k); err != nil {
			t.Fatalf("Ensure: %v", err)
		}
	}
	return memory.NewUsersRepo(roles)
}

func doJSON(r http.Handler, method, path, body string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func mustReadJSON[T any](t *testing.T, w *httptest.ResponseRecorder, out *T) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("failed to unmarshal json: %v, body=%s", err, w.Body.String())
	}
}

type fakeTokens struct {
	mu        sync.Mutex
	token     string
	err       error
	revokeErr error
	revoked   []string
	forgotten []string
}

func (f *fakeTokens) Authenticate(_ context.Context, _, _ string) (string, error) {
	return f.token, f.err
}

func (f *fakeTokens) RevokeUser(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked = append(f.revoked, userID)
	return f.revokeErr
}

func (f *fakeTokens) Forget(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forgotten = append(f.forgotten, userID)
	return nil
}
