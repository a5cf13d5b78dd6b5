package worker

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

type fakeSweeper struct {
	mu    sync.Mutex
	calls int
	err   error
	seen  time.Time
}

func (f *fakeSweeper) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.seen = now
	if f.err != nil {
		return 0, f.err
	}
	return 3, nil
}

type countRecorder struct{ total int64 }

func (c *countRecorder) SessionsSwept(n int64) { c.total += n }

func TestSweepOnce(t *testing.T) {
	fixed := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := &fakeSweeper{}
	rec := &countRecorder{}

	w := New(Config{Interval: time.Minute}, s).WithRecorder(rec)
	w.now = func() time.Time { return fixed }

	n, err := w.SweepOnce(context.Background())
	if err != nil || n != 3 {
		t.Fatalf("SweepOnce = %d, %v", n, err)
	}
	if !s.seen.Equal(fixed) {
		t.Fatalf("expected sweep at %s, got %s", fixed, s.seen)
	}
	if rec.total != 3 {
		t.Fatalf("recorder saw %d", rec.total)
	}
}

func TestSweepOnceError(t *testing.T) {
	s := &fakeSweeper{err: errors.New("boom")}
	rec := &countRecorder{}

	w := New(Config{Interval: time.Minute}, s).WithRecorder(rec)

	if _, err := w.SweepOnce(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if rec.total != 0 {
		t.Fatalf("failed sweep should not be recorded")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	s := &fakeSweeper{}
	w := New(Config{Interval: time.Hour}, s)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		s.mu.Lock()
		calls := s.calls
		s.mu.Unlock()
		if calls > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected an immediate sweep")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if !w.Ready() {
		t.Fatalf("expected ready while running")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not stop")
	}

	if w.Ready() {
		t.Fatalf("expected not ready after stop")
	}
}

func TestExponentialBackoff(t *testing.T) {
	if d := ExponentialBackoff(0); d < 2*time.Second || d > 2*time.Second+250*time.Millisecond {
		t.Fatalf("attempt 0 = %s", d)
	}
	if d := ExponentialBackoff(50); d < 5*time.Minute || d > 5*time.Minute+250*time.Millisecond {
		t.Fatalf("attempt 50 = %s", d)
	}
}

type pingErr struct{ err error }

func (p pingErr) Ping(context.Context) error { return p.err }

func TestHealthHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := New(Config{}, &fakeSweeper{})

	get := func(h http.Handler, path string) int {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec.Code
	}

	h := w.HealthHandler(pingErr{}, nil)
	if code := get(h, "/healthz"); code != http.StatusOK {
		t.Fatalf("healthz = %d", code)
	}
	if code := get(h, "/readyz"); code != http.StatusServiceUnavailable {
		t.Fatalf("readyz before run = %d", code)
	}

	w.setReady(true)
	if code := get(h, "/readyz"); code != http.StatusOK {
		t.Fatalf("readyz = %d", code)
	}

	down := w.HealthHandler(pingErr{err: errors.New("down")}, nil)
	if code := get(down, "/readyz"); code != http.StatusServiceUnavailable {
		t.Fatalf("readyz with db down = %d", code)
	}
}
