package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/geocoder89/labhub/internal/config"
	"github.com/geocoder89/labhub/internal/db"
	"github.com/geocoder89/labhub/internal/observability"
	"github.com/geocoder89/labhub/internal/repo/postgres"
	"github.com/geocoder89/labhub/internal/worker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}

	log := observability.NewLogger(cfg.Env, cfg.LogLevel)
	slog.SetDefault(log)

	if cfg.Store != "postgres" {
		log.Error("the session sweeper needs STORE=postgres; the memory store sweeps inside the api")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	prom := observability.NewProm(prometheus.DefaultRegisterer)
	sessions := postgres.NewSessionsRepo(pool, prom)

	host, _ := os.Hostname()
	workerID := host + "-" + strconv.Itoa(os.Getpid())

	w := worker.New(worker.Config{
		Interval: cfg.Worker.SweepInterval,
		WorkerID: workerID,
	}, sessions).WithRecorder(prom)

	healthSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Worker.HealthPort),
		Handler:           w.HealthHandler(pool, promhttp.Handler()),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("worker health server failed", "err", err)
		}
	}()

	log.Info("worker has started", "worker_id", workerID, "interval", cfg.Worker.SweepInterval.String())

	if err := w.Run(ctx); err != nil {
		log.Error("worker stopped with error", "err", err)
	}

	sctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()
	_ = healthSrv.Shutdown(sctx)

	log.Info("worker shutdown complete")
}
