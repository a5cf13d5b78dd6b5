package middlewares

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	apiCSP = "default-src 'none'; frame-ancestors 'none'"
	// the docs page loads Swagger UI from unpkg and bootstraps it inline
	docsCSP = "default-src 'self'; base-uri 'none'; frame-ancestors 'none'; object-src 'none'; connect-src 'self'; img-src 'self' data: https:; font-src 'self' https://unpkg.com data:; style-src 'self' 'unsafe-inline' https://unpkg.com; script-src 'self' 'unsafe-inline' https://unpkg.com"
)

// SecurityHeaders sets the browser hardening headers and the cache policy.
// Anything under /user or /staff carries tokens or personal data and is never
// stored; recipes may be kept privately but must be revalidated by ETag.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("X-XSS-Protection", "0")

		path := strings.TrimSuffix(c.Request.URL.Path, "/")

		if path == "/docs" {
			h.Set("Content-Security-Policy", docsCSP)
		} else {
			h.Set("Content-Security-Policy", apiCSP)
		}

		switch {
		case underPrefix(path, "/user"), underPrefix(path, "/staff"):
			h.Set("Cache-Control", "no-store")
		case underPrefix(path, "/recipes"):
			h.Set("Cache-Control", "private, no-cache")
		}

		c.Next()
	}
}

func underPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
