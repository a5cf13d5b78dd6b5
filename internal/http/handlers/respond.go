package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	v, ok := ctx.Get("request_id")

	if ok {
		s, ok := v.(string)
		if ok && s != "" {
			return s
		}
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	ctx.JSON(status, gin.H{
		"error": APIError{
			Code:      code,
			Message:   message,
			RequestID: requestIDFrom(ctx),
			Details:   details,
		},
	})
}

// AbortError is RespondError for middleware: nothing after it runs.
func AbortError(ctx *gin.Context, status int, code, message string) {
	RespondError(ctx, status, code, message, nil)
	ctx.Abort()
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

// RespondFieldErrors reports validation failures in the same shape BindJSON uses.
func RespondFieldErrors(ctx *gin.Context, message string, fields ...FieldError) {
	RespondBadRequest(ctx, message, gin.H{"fields": fields})
}

func RespondUnauthorized(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusUnauthorized, "unauthorized", message, nil)
}

func RespondForbidden(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusForbidden, "forbidden", message, nil)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "not_found", message, nil)
}

func RespondMethodNotAllowed(ctx *gin.Context) {
	RespondError(ctx, http.StatusMethodNotAllowed, "method_not_allowed", "Method "+ctx.Request.Method+" not allowed.", nil)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, nil)
}

func RespondConflict(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusConflict, code, message, nil)
}

// NoMethod and NoRoute keep router level failures in the API error shape.
func NoMethod(ctx *gin.Context) {
	RespondMethodNotAllowed(ctx)
}

func NoRoute(ctx *gin.Context) {
	RespondNotFound(ctx, "Resource not found")
}
