package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestAuthAttemptCounter(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	p.AuthAttempt("success")
	p.AuthAttempt("success")
	p.AuthAttempt("bad_password")

	if got := testutil.ToFloat64(p.AuthAttempts.WithLabelValues("success")); got != 2 {
		t.Fatalf("success = %v, want 2", got)
	}
	if got := testutil.ToFloat64(p.AuthAttempts.WithLabelValues("bad_password")); got != 1 {
		t.Fatalf("bad_password = %v, want 1", got)
	}
}

func TestGuardAndSweepCounters(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	p.GuardDenied("assistant_creation", http.StatusForbidden)
	p.SessionsSwept(4)
	p.SessionsSwept(0)

	if got := testutil.ToFloat64(p.GuardDenials.WithLabelValues("assistant_creation", "403")); got != 1 {
		t.Fatalf("guard denials = %v, want 1", got)
	}
	if got := testutil.ToFloat64(p.SessionsSweptTotal); got != 4 {
		t.Fatalf("swept = %v, want 4", got)
	}
}

func TestObserveDBClassifiesErrors(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	err := p.ObserveDB("users.create", func() error {
		return &pgconn.PgError{Code: "23505"}
	})
	if err == nil {
		t.Fatalf("expected error to pass through")
	}

	if got := testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("users.create", "unique_violation")); got != 1 {
		t.Fatalf("unique_violation = %v, want 1", got)
	}

	_ = p.ObserveDB("users.get", func() error {
		return &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	})
	if got := testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("users.get", "connection")); got != 1 {
		t.Fatalf("connection = %v, want 1", got)
	}

	_ = p.ObserveDB("recipes.create", func() error { return &pgconn.PgError{Code: "22003"} })
	if got := testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("recipes.create", "out_of_range")); got != 1 {
		t.Fatalf("out_of_range = %v, want 1", got)
	}

	_ = p.ObserveDB("recipes.get", func() error { return fmt.Errorf("get recipe: %w", context.DeadlineExceeded) })
	if got := testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("recipes.get", "timeout")); got != 1 {
		t.Fatalf("timeout = %v, want 1", got)
	}
}

func TestObserveDBMissIsNotAnError(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	_ = p.ObserveDB("users.get_by_email", func() error { return pgx.ErrNoRows })
	_ = p.ObserveDB("recipes.get", func() error { return &pgconn.PgError{Code: "22P02"} })

	if n := testutil.CollectAndCount(p.DbErrorsTotal); n != 0 {
		t.Fatalf("misses must not count as errors, got %d series", n)
	}
	if n := testutil.CollectAndCount(p.DbQueryDuration); n != 2 {
		t.Fatalf("expected two timed calls, got %d series", n)
	}
}

func TestGinMiddlewareCountsRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	p := NewProm(prometheus.NewRegistry())

	r := gin.New()
	r.Use(p.GinHandleMiddleware())
	r.GET("/recipes/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/recipes/abc", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	if got := testutil.ToFloat64(p.RequestsTotal.WithLabelValues("GET", "/recipes/:id", "204")); got != 1 {
		t.Fatalf("requests = %v, want 1", got)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		env, level string
		want       slog.Level
	}{
		{"dev", "", slog.LevelDebug},
		{"prod", "", slog.LevelInfo},
		{"prod", "warn", slog.LevelWarn},
		{"dev", "error", slog.LevelError},
		{"prod", "DEBUG", slog.LevelDebug},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.env, tt.level); got != tt.want {
			t.Fatalf("parseLevel(%q,%q) = %v, want %v", tt.env, tt.level, got, tt.want)
		}
	}
}
