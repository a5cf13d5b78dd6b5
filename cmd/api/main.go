package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/labhub/internal/auth"
	"github.com/geocoder89/labhub/internal/cache"
	"github.com/geocoder89/labhub/internal/config"
	"github.com/geocoder89/labhub/internal/db"
	httpx "github.com/geocoder89/labhub/internal/http"
	"github.com/geocoder89/labhub/internal/observability"
	"github.com/geocoder89/labhub/internal/redisclient"
	"github.com/geocoder89/labhub/internal/worker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// Load the config set up
	cfg, err := config.Load(".env")
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}

	log := observability.NewLogger(cfg.Env, cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.OTel.Endpoint != "" {
		shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
			ServiceName: cfg.OTel.ServiceName,
			Environment: cfg.Env,
			Endpoint:    cfg.OTel.Endpoint,
			SampleRatio: cfg.OTel.SampleRatio,
		})
		if err != nil {
			log.Error("tracer init failed", "err", err)
			os.Exit(1)
		}
		defer func() {
			sctx, cancel := config.WithTimeout(5 * time.Second)
			defer cancel()
			_ = shutdownTracer(sctx)
		}()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	prom := observability.NewProm(reg)

	st, err := openStores(ctx, cfg, prom)
	if err != nil {
		log.Error("store init failed", "err", err, "store", cfg.Store)
		os.Exit(1)
	}
	defer st.close()

	// roles and the bootstrap superuser must exist before the first request
	if err := db.EnsureRoles(ctx, st.roles); err != nil {
		log.Error("ensure roles failed", "err", err)
		os.Exit(1)
	}
	if err := db.EnsureSuperuser(ctx, st.users, cfg.Admin); err != nil {
		log.Error("ensure superuser failed", "err", err)
		os.Exit(1)
	}

	var principals auth.PrincipalCache = cache.NewMemoryPrincipals(cfg.Token.CacheTTL)
	if cfg.Redis.Addr != "" {
		rc := redisclient.New(redisclient.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rc.Close()

		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := rc.Ping(pctx)
		cancel()
		if err != nil {
			log.Error("redis ping failed", "err", err, "addr", cfg.Redis.Addr)
			os.Exit(1)
		}

		principals = cache.NewRedisPrincipals(rc.Raw(), "labhub:")
		st.checks["redis"] = rc.Ping
	}

	gateway := auth.NewGateway(st.users, st.users, st.sessions, auth.NewManager(cfg.TokenSecret()), principals, auth.GatewayConfig{
		TokenTTL: cfg.Token.TTL,
		CacheTTL: cfg.Token.CacheTTL,
	}).WithAttemptRecorder(prom)

	if st.sweepInProcess {
		sweeper := worker.New(worker.Config{Interval: cfg.Worker.SweepInterval, WorkerID: "api"}, st.sessions).WithRecorder(prom)
		go func() {
			_ = sweeper.Run(ctx)
		}()
	}

	router := httpx.NewRouter(cfg, httpx.Deps{
		Users:    st.users,
		Recipes:  st.recipes,
		Tokens:   gateway,
		Resolver: gateway,
		Checks:   st.checks,
		Prom:     prom,
		Gatherer: reg,
	})

	srv := httpx.Server(fmt.Sprintf(":%d", cfg.Port), router)

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.Store)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		sctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(sctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
