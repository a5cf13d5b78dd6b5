package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestRateLimiter(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	r := gin.New()
	r.POST("/token", rl.RateLimiterMiddleware(KeyByIP), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	hit := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/token", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	for i := 0; i < 2; i++ {
		if w := hit("10.0.0.1"); w.Code != http.StatusOK {
			t.Fatalf("request %d: %d", i, w.Code)
		}
	}

	w := hit("10.0.0.1")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") != "60" {
		t.Fatalf("Retry-After = %q", w.Header().Get("Retry-After"))
	}

	if w := hit("10.0.0.2"); w.Code != http.StatusOK {
		t.Fatalf("other client should not be limited: %d", w.Code)
	}

	now = now.Add(61 * time.Second)
	if w := hit("10.0.0.1"); w.Code != http.StatusOK {
		t.Fatalf("window should have reset: %d", w.Code)
	}
}

func TestKeyByUserOrIP(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.RemoteAddr = "10.0.0.9:999"

	if got := KeyByUserOrIP(c); got != "10.0.0.9" {
		t.Fatalf("anonymous key = %q", got)
	}

	c.Set(CtxUserID, "u-1")
	if got := KeyByUserOrIP(c); got != "user:u-1" {
		t.Fatalf("user key = %q", got)
	}
}
