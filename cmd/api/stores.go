package main

import (
	"context"
	"fmt"

	"github.com/geocoder89/labhub/internal/auth"
	"github.com/geocoder89/labhub/internal/config"
	"github.com/geocoder89/labhub/internal/db"
	"github.com/geocoder89/labhub/internal/http/handlers"
	"github.com/geocoder89/labhub/internal/observability"
	"github.com/geocoder89/labhub/internal/repo/memory"
	"github.com/geocoder89/labhub/internal/repo/postgres"
	"github.com/geocoder89/labhub/internal/worker"
)

type userStore interface {
	handlers.StaffStore
	auth.UserReader
	auth.PrincipalLoader
	db.SuperuserStore
}

type sessionStore interface {
	auth.SessionStore
	worker.SessionSweeper
}

type stores struct {
	users    userStore
	roles    db.RoleEnsurer
	sessions sessionStore
	recipes  handlers.RecipeStore
	checks   map[string]handlers.Pinger

	// set for the memory store only: nothing else can sweep its sessions
	sweepInProcess bool

	close func()
}

func openStores(ctx context.Context, cfg config.Config, prom *observability.Prom) (stores, error) {
	if cfg.Store == "memory" {
		roles := memory.NewRolesRepo()

		return stores{
			users:          memory.NewUsersRepo(roles),
			roles:          roles,
			sessions:       memory.NewSessionsRepo(),
			recipes:        memory.NewRecipesRepo(),
			checks:         map[string]handlers.Pinger{},
			sweepInProcess: true,
			close:          func() {},
		}, nil
	}

	if cfg.DB.Migrate {
		if err := db.UpMigrations(cfg.DB.DSN()); err != nil {
			return stores{}, fmt.Errorf("migrate: %w", err)
		}
	}

	pool, err := db.NewPool(ctx, cfg.DB)
	if err != nil {
		return stores{}, fmt.Errorf("db connect: %w", err)
	}

	return stores{
		users:    postgres.NewUsersRepo(pool, prom),
		roles:    postgres.NewRolesRepo(pool, prom),
		sessions: postgres.NewSessionsRepo(pool, prom),
		recipes:  postgres.NewRecipesRepo(pool, prom),
		checks:   map[string]handlers.Pinger{"db": pool.Ping},
		close:    pool.Close,
	}, nil
}
