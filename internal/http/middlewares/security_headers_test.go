package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestSecurityHeadersCachePolicy(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(SecurityHeaders())
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	r.POST("/user/token", ok)
	r.GET("/staff/assistants", ok)
	r.GET("/recipes/:id", ok)
	r.GET("/userinfo", ok)
	r.GET("/docs", ok)

	tests := []struct {
		method string
		path   string
		cache  string
		csp    string
	}{
		{http.MethodPost, "/user/token", "no-store", apiCSP},
		{http.MethodGet, "/staff/assistants", "no-store", apiCSP},
		{http.MethodGet, "/recipes/abc", "private, no-cache", apiCSP},
		{http.MethodGet, "/userinfo", "", apiCSP},
		{http.MethodGet, "/docs", "", docsCSP},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))

			if got := w.Header().Get("Cache-Control"); got != tt.cache {
				t.Fatalf("Cache-Control = %q, want %q", got, tt.cache)
			}
			if got := w.Header().Get("Content-Security-Policy"); got != tt.csp {
				t.Fatalf("CSP = %q", got)
			}
			if w.Header().Get("X-Content-Type-Options") != "nosniff" {
				t.Fatalf("missing nosniff")
			}
		})
	}
}
