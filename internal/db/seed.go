package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/geocoder89/labhub/internal/config"
	"github.com/geocoder89/labhub/internal/domain/role"
	"github.com/geocoder89/labhub/internal/domain/user"
	"github.com/geocoder89/labhub/internal/security"
)

type RoleEnsurer interface {
	Ensure(ctx context.Context, kind role.Kind) (role.Role, error)
}

type SuperuserStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, nu user.NewUser) (user.User, error)
}

// EnsureRoles writes both fixed roles with their declared grants. Safe to run
// on every boot.
func EnsureRoles(ctx context.Context, roles RoleEnsurer) error {
	for _, kind := range role.All() {
		r, err := roles.Ensure(ctx, kind)
		if err != nil {
			return fmt.Errorf("ensure role %s: %w", kind, err)
		}

		slog.Default().DebugContext(ctx, "role ensured", "role", r.Name(), "permissions", len(r.Permissions))
	}

	return nil
}

// EnsureSuperuser creates the bootstrap superuser when credentials are
// configured and no account with that email exists yet.
func EnsureSuperuser(ctx context.Context, users SuperuserStore, admin config.Admin) error {
	if admin.Email == "" || admin.Password == "" {
		return nil
	}

	email := user.NormalizeEmail(admin.Email)

	_, err := users.GetByEmail(ctx, email)
	if err == nil {
		return nil
	}

	if !errors.Is(err, user.ErrNotFound) {
		return err
	}

	hash, err := security.HashPassword(admin.Password)
	if err != nil {
		return err
	}

	_, err = users.Create(ctx, user.NewUser{
		Email:        email,
		PasswordHash: hash,
		Name:         admin.Name,
		IsStaff:      true,
		IsSuperuser:  true,
	})

	if errors.Is(err, user.ErrEmailTaken) {
		// another replica won the race
		return nil
	}
	if err != nil {
		return err
	}

	slog.Default().InfoContext(ctx, "superuser created", "email", email)

	return nil
}
