package middlewares

import (
	"net/http"
	"strings"

	"github.com/geocoder89/labhub/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

// RequireJSON rejects write requests that carry a body in any other format.
// Bodyless writes (e.g. POST .../deactivate) pass through.
func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			if c.Request.ContentLength == 0 && len(c.Request.TransferEncoding) == 0 {
				break
			}

			ct := c.GetHeader("Content-Type")
			// allow "application/json; charset=utf-8"
			if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
				handlers.AbortError(c, http.StatusUnsupportedMediaType, "unsupported_media_type", "Content-Type must be application/json")
				return
			}
		}
		c.Next()
	}
}
