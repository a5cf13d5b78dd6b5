// Package worker runs background maintenance next to the API: it sweeps
// expired sessions so the auth_tokens table does not grow without bound.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type SessionSweeper interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// SweepRecorder is told how many sessions each sweep removed.
type SweepRecorder interface {
	SessionsSwept(n int64)
}

type Config struct {
	Interval time.Duration
	WorkerID string
}

type Worker struct {
	cfg      Config
	sessions SessionSweeper
	recorder SweepRecorder
	now      func() time.Time

	readyMu sync.RWMutex
	ready   bool
}

func New(cfg Config, sessions SessionSweeper) *Worker {
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Minute
	}

	return &Worker{
		cfg:      cfg,
		sessions: sessions,
		now:      time.Now,
	}
}

func (w *Worker) WithRecorder(r SweepRecorder) *Worker {
	w.recorder = r
	return w
}

// Run sweeps once immediately and then on every tick until ctx is done. A
// failed sweep is retried with exponential backoff instead of waiting a full
// interval.
func (w *Worker) Run(ctx context.Context) error {
	w.setReady(true)
	defer w.setReady(false)

	log := slog.Default().With("worker_id", w.cfg.WorkerID)

	failures := 0
	delay := time.Duration(0)

	for {
		timer := time.NewTimer(delay)

		select {
		case <-ctx.Done():
			timer.Stop()
			log.Info("session sweeper received shutdown signal")
			return nil

		case <-timer.C:
		}

		n, err := w.SweepOnce(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			delay = ExponentialBackoff(failures)
			failures++
			log.Error("session sweep failed", "err", err, "attempt", failures, "retry_in", delay.String())
			continue
		}

		failures = 0
		delay = w.cfg.Interval

		if n > 0 {
			log.Info("expired sessions removed", "count", n)
		}
	}
}

// SweepOnce deletes every session that has expired by now.
func (w *Worker) SweepOnce(ctx context.Context) (int64, error) {
	sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	n, err := w.sessions.DeleteExpired(sweepCtx, w.now().UTC())
	if err != nil {
		return 0, err
	}

	if w.recorder != nil {
		w.recorder.SessionsSwept(n)
	}

	return n, nil
}

func (w *Worker) setReady(v bool) {
	w.readyMu.Lock()
	w.ready = v
	w.readyMu.Unlock()
}

func (w *Worker) Ready() bool {
	w.readyMu.RLock()
	defer w.readyMu.RUnlock()
	return w.ready
}
