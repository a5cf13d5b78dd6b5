package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether a backing service answers.
type Pinger func(ctx context.Context) error

type HealthHandler struct {
	checks map[string]Pinger
}

// create a new instance of the health handler; nil checks are skipped
func NewHealthHandler(checks map[string]Pinger) *HealthHandler {
	live := make(map[string]Pinger, len(checks))
	for name, p := range checks {
		if p != nil {
			live[name] = p
		}
	}
	return &HealthHandler{checks: live}
}

func (h *HealthHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HealthHandler) Readyz(ctx *gin.Context) {
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), time.Second)
	defer cancel()

	failed := gin.H{}
	for name, ping := range h.checks {
		if err := ping(cctx); err != nil {
			failed[name] = err.Error()
		}
	}

	if len(failed) > 0 {
		RespondError(ctx, http.StatusServiceUnavailable, "not_ready", "Dependencies unavailable", failed)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ready"})
}
