package middlewares

import (
	"net/http"

	"github.com/geocoder89/labhub/internal/domain/permission"
	"github.com/gin-gonic/gin"
)

// RequirePermission lets the request through only when the resolved principal
// holds key. It must run after RequireAuth.
func (m *AuthMiddleware) RequirePermission(key permission.Key) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFromContext(c)

		if !ok {
			m.deny(c, string(key), http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}

		if !m.checker.HasPermission(p, key) {
			m.deny(c, string(key), http.StatusForbidden, "You do not have permission to perform this action.")
			return
		}

		c.Next()
	}
}
