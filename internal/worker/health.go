package worker

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger checks a dependency the sweeper cannot work without.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves liveness, readiness and, when metrics is non-nil,
// /metrics for the worker process.
func (w *Worker) HealthHandler(db Pinger, metrics http.Handler) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}

	// liveness: process is up
	r.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"ok": true})
	})

	// readiness: the loop is running and the database answers
	r.GET("/readyz", func(ctx *gin.Context) {
		if !w.Ready() {
			ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
			return
		}

		if db != nil {
			cctx, cancel := context.WithTimeout(ctx.Request.Context(), 500*time.Millisecond)
			defer cancel()

			if err := db.Ping(cctx); err != nil {
				ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "db": err.Error()})
				return
			}
		}

		ctx.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	return r
}
