package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/labhub/internal/domain/permission"
	"github.com/geocoder89/labhub/internal/domain/role"
	"github.com/geocoder89/labhub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RolesRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewRolesRepo(pool *pgxpool.Pool, prom *observability.Prom) *RolesRepo {
	return &RolesRepo{pool: pool, prom: prom}
}

func (r *RolesRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

// Ensure saves the role for kind. The name always comes from the kind and the
// stored grants are reset to exactly what the kind declares. The permission
// catalog is written first so the grants have something to point at.
func (r *RolesRepo) Ensure(ctx context.Context, kind role.Kind) (role.Role, error) {
	if !kind.Valid() {
		return role.Role{}, role.ErrNotFound
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return role.Role{}, err
	}
	defer tx.Rollback(ctx)

	err = r.observe("roles.ensure", func() error {
		for _, d := range permission.Catalog() {
			_, err := tx.Exec(ctx, `
				INSERT INTO permissions (key, description) VALUES ($1, $2)
				ON CONFLICT (key) DO UPDATE SET description = EXCLUDED.description`,
				string(d.Key), d.Description,
			)
			if err != nil {
				return err
			}
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO roles (name, is_active, is_staff) VALUES ($1, TRUE, FALSE)
			ON CONFLICT (name) DO NOTHING`,
			kind.Name(),
		)
		if err != nil {
			return err
		}

		keys := make([]string, 0, len(kind.Permissions()))
		for _, k := range kind.Permissions() {
			keys = append(keys, string(k))
		}

		_, err = tx.Exec(ctx, `
			DELETE FROM role_permissions
			WHERE role_name = $1 AND NOT (permission_key = ANY($2::text[]))`,
			kind.Name(), keys,
		)
		if err != nil {
			return err
		}

		for _, k := range keys {
			_, err = tx.Exec(ctx, `
				INSERT INTO role_permissions (role_name, permission_key) VALUES ($1, $2)
				ON CONFLICT DO NOTHING`,
				kind.Name(), k,
			)
			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return role.Role{}, fmt.Errorf("ensure role: %w", err)
	}

	out, err := getRole(ctx, tx, kind)
	if err != nil {
		return role.Role{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return role.Role{}, err
	}

	return out, nil
}

func (r *RolesRepo) Get(ctx context.Context, kind role.Kind) (role.Role, error) {
	var out role.Role

	err := r.observe("roles.get", func() error {
		var err error
		out, err = getRole(ctx, r.pool, kind)
		return err
	})

	return out, err
}

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getRole(ctx context.Context, q queryRower, kind role.Kind) (role.Role, error) {
	out := role.Role{Kind: kind}
	var keys []string

	err := q.QueryRow(ctx, `
		SELECT ro.is_active, ro.is_staff,
		       COALESCE((SELECT array_agg(rp.permission_key ORDER BY rp.permission_key)
		                 FROM role_permissions rp WHERE rp.role_name = ro.name), '{}')
		FROM roles ro
		WHERE ro.name = $1`,
		kind.Name(),
	).Scan(&out.IsActive, &out.IsStaff, &keys)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return role.Role{}, role.ErrNotFound
		}
		return role.Role{}, err
	}

	out.Permissions = toKeys(keys)

	return out, nil
}
