package middlewares

import (
	"net/http"

	"github.com/geocoder89/labhub/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

// MaxBodyBytes caps request bodies at limit. A declared Content-Length over the
// cap is refused before any handler runs; chunked bodies are cut off by the
// reader and BindJSON turns that into the same 413.
func MaxBodyBytes(limit int64) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if limit <= 0 || ctx.Request.Body == nil || ctx.Request.Body == http.NoBody {
			ctx.Next()
			return
		}

		if ctx.Request.ContentLength > limit {
			handlers.AbortError(ctx, http.StatusRequestEntityTooLarge, "payload_too_large", "Request body too large")
			return
		}

		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, limit)
		ctx.Next()
	}
}
