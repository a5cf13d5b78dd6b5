package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/geocoder89/labhub/internal/authz"
	"github.com/geocoder89/labhub/internal/domain/permission"
	"github.com/geocoder89/labhub/internal/domain/role"
	"github.com/geocoder89/labhub/internal/domain/user"
	"github.com/geocoder89/labhub/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, email, password_hash, name, is_active, is_staff, is_superuser, role_name, created_at, updated_at`

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User

	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.Name,
		&u.IsActive,
		&u.IsStaff,
		&u.IsSuperuser,
		&u.RoleName,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, err
}

// Create inserts an active user. A duplicate email is user.ErrEmailTaken; a
// role that was never bootstrapped is role.ErrNotFound.
func (r *UsersRepo) Create(ctx context.Context, nu user.NewUser) (user.User, error) {
	var roleName *string
	if nu.Role.Valid() {
		name := nu.Role.Name()
		roleName = &name
	}

	now := time.Now().UTC()

	var u user.User
	err := r.observe("users.create", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx, `
			INSERT INTO users (id, email, password_hash, name, is_active, is_staff, is_superuser, role_name, created_at, updated_at)
			VALUES ($1, $2, $3, $4, TRUE, $5, $6, $7, $8, $8)
			RETURNING `+userColumns,
			uuid.NewString(), nu.Email, nu.PasswordHash, nu.Name, nu.IsStaff, nu.IsSuperuser, roleName, now,
		))
		return err
	})

	if err != nil {
		switch {
		case isUniqueViolation(err):
			return user.User{}, user.ErrEmailTaken
		case isForeignKeyViolation(err):
			return user.User{}, role.ErrNotFound
		}
		return user.User{}, fmt.Errorf("insert user: %w", err)
	}

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_email", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_id", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidText(err) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}

	return u, nil
}

// Update applies the non-nil fields of c. An empty change set just reads the row.
func (r *UsersRepo) Update(ctx context.Context, id string, c user.Changes) (user.User, error) {
	if c.Empty() {
		return r.GetByID(ctx, id)
	}

	set := map[string]any{}
	if c.Name != nil {
		set["name"] = *c.Name
	}
	if c.Email != nil {
		set["email"] = *c.Email
	}
	if c.PasswordHash != nil {
		set["password_hash"] = *c.PasswordHash
	}
	if c.IsActive != nil {
		set["is_active"] = *c.IsActive
	}

	query, args, err := sq.Update("users").
		SetMap(set).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + userColumns).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return user.User{}, err
	}

	var u user.User
	err = r.observe("users.update", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx, query, args...))
		return err
	})

	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows), isInvalidText(err):
			return user.User{}, user.ErrNotFound
		case isUniqueViolation(err):
			return user.User{}, user.ErrEmailTaken
		}
		return user.User{}, fmt.Errorf("update user: %w", err)
	}

	return u, nil
}

// ListByRole pages through the users holding kind, newest first.
func (r *UsersRepo) ListByRole(ctx context.Context, kind role.Kind, limit, offset int) ([]user.User, int, error) {
	query, args, err := sq.Select(userColumns, "COUNT(*) OVER() AS total").
		From("users").
		Where(sq.Eq{"role_name": kind.Name()}).
		OrderBy("created_at DESC", "id ASC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, 0, err
	}

	out := make([]user.User, 0, limit)
	total := 0

	err = r.observe("users.list_by_role", func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var u user.User
			var t int

			err = rows.Scan(
				&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.IsActive, &u.IsStaff,
				&u.IsSuperuser, &u.RoleName, &u.CreatedAt, &u.UpdatedAt, &t,
			)
			if err != nil {
				return err
			}

			total = t
			out = append(out, u)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, 0, err
	}

	return out, total, nil
}

// GrantPermissions adds direct grants to a user. Existing grants are kept.
func (r *UsersRepo) GrantPermissions(ctx context.Context, userID string, keys ...permission.Key) error {
	if len(keys) == 0 {
		return nil
	}

	ins := sq.Insert("user_permissions").
		Columns("user_id", "permission_key").
		Suffix("ON CONFLICT DO NOTHING").
		PlaceholderFormat(sq.Dollar)

	for _, k := range keys {
		ins = ins.Values(userID, string(k))
	}

	query, args, err := ins.ToSql()
	if err != nil {
		return err
	}

	err = r.observe("users.grant_permissions", func() error {
		_, err := r.pool.Exec(ctx, query, args...)
		return err
	})

	if err != nil {
		if isForeignKeyViolation(err) {
			return user.ErrNotFound
		}
		return fmt.Errorf("grant permissions: %w", err)
	}

	return nil
}

// LoadPrincipal reads a user together with its direct grants and the grants of
// its role in one round trip.
func (r *UsersRepo) LoadPrincipal(ctx context.Context, userID string) (authz.Principal, error) {
	var (
		p         authz.Principal
		direct    []string
		fromRole  []string
		roleName  string
		roleAlive bool
	)

	err := r.observe("users.load_principal", func() error {
		return r.pool.QueryRow(ctx, `
			SELECT u.id, u.email, u.name, u.is_active, u.is_staff, u.is_superuser,
			       COALESCE(u.role_name, ''),
			       COALESCE(ro.is_active, FALSE),
			       COALESCE((SELECT array_agg(up.permission_key ORDER BY up.permission_key)
			                 FROM user_permissions up WHERE up.user_id = u.id), '{}'),
			       COALESCE((SELECT array_agg(rp.permission_key ORDER BY rp.permission_key)
			                 FROM role_permissions rp WHERE rp.role_name = u.role_name), '{}')
			FROM users u
			LEFT JOIN roles ro ON ro.name = u.role_name
			WHERE u.id = $1`,
			userID,
		).Scan(&p.UserID, &p.Email, &p.Name, &p.IsActive, &p.IsStaff, &p.IsSuperuser, &roleName, &roleAlive, &direct, &fromRole)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidText(err) {
			return authz.Principal{}, user.ErrNotFound
		}
		return authz.Principal{}, fmt.Errorf("load principal: %w", err)
	}

	p.Role = roleName
	p.RoleActive = roleAlive
	p.Permissions = toKeys(direct)
	p.RolePermissions = toKeys(fromRole)

	return p, nil
}

func toKeys(in []string) []permission.Key {
	if len(in) == 0 {
		return nil
	}

	out := make([]permission.Key, len(in))
	for i, s := range in {
		out[i] = permission.Key(s)
	}
	return out
}
