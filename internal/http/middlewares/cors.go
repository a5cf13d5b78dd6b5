package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

var (
	corsMethods = strings.Join([]string{
		http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions,
	}, ",")
	// If-Match / If-None-Match carry recipe ETags for conditional requests.
	corsRequestHeaders = "Authorization,Content-Type,If-Match,If-None-Match,X-Request-Id"
	corsExposedHeaders = "ETag,X-Request-Id,WWW-Authenticate"
)

// CORSMiddleware answers for the listed origins only. Preflights always end
// here with a 204.
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[strings.TrimRight(strings.TrimSpace(origin), "/")] = struct{}{}
	}

	return func(ctx *gin.Context) {
		if origin := ctx.GetHeader("Origin"); origin != "" {
			if _, ok := allowed[origin]; ok {
				ctx.Header("Vary", "Origin")
				ctx.Header("Access-Control-Allow-Origin", origin)
				ctx.Header("Access-Control-Allow-Credentials", "true")
				ctx.Header("Access-Control-Allow-Methods", corsMethods)
				ctx.Header("Access-Control-Allow-Headers", corsRequestHeaders)
				ctx.Header("Access-Control-Expose-Headers", corsExposedHeaders)
			}
		}

		if ctx.Request.Method == http.MethodOptions {
			ctx.AbortWithStatus(http.StatusNoContent)
			return
		}

		ctx.Next()
	}
}
