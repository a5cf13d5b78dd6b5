package db

import (
	"context"
	"errors"
	"testing"

	"github.com/geocoder89/labhub/internal/config"
	"github.com/geocoder89/labhub/internal/domain/role"
	"github.com/geocoder89/labhub/internal/domain/user"
	"github.com/geocoder89/labhub/internal/security"
)

type fakeRoles struct {
	ensured []role.Kind
	err     error
}

func (f *fakeRoles) Ensure(_ context.Context, kind role.Kind) (role.Role, error) {
	if f.err != nil {
		return role.Role{}, f.err
	}
	f.ensured = append(f.ensured, kind)
	return role.New(kind), nil
}

type fakeUsers struct {
	existing  map[string]user.User
	created   []user.NewUser
	createErr error
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (user.User, error) {
	u, ok := f.existing[email]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) Create(_ context.Context, nu user.NewUser) (user.User, error) {
	if f.createErr != nil {
		return user.User{}, f.createErr
	}
	f.created = append(f.created, nu)
	return user.User{Email: nu.Email, Name: nu.Name}, nil
}

func TestEnsureRoles(t *testing.T) {
	roles := &fakeRoles{}

	if err := EnsureRoles(context.Background(), roles); err != nil {
		t.Fatalf("EnsureRoles: %v", err)
	}

	if len(roles.ensured) != 2 || roles.ensured[0] != role.Administrator || roles.ensured[1] != role.Assistant {
		t.Fatalf("unexpected roles %v", roles.ensured)
	}

	roles = &fakeRoles{err: errors.New("boom")}
	if err := EnsureRoles(context.Background(), roles); err == nil {
		t.Fatalf("expected error")
	}
}

func TestEnsureSuperuser(t *testing.T) {
	ctx := context.Background()
	admin := config.Admin{Email: "root@EXAMPLE.com", Password: "secret123", Name: "Root"}

	users := &fakeUsers{existing: map[string]user.User{}}
	if err := EnsureSuperuser(ctx, users, admin); err != nil {
		t.Fatalf("EnsureSuperuser: %v", err)
	}

	if len(users.created) != 1 {
		t.Fatalf("expected one user created, got %d", len(users.created))
	}

	nu := users.created[0]
	if nu.Email != "root@example.com" || !nu.IsSuperuser || !nu.IsStaff || nu.Role != 0 {
		t.Fatalf("unexpected superuser %+v", nu)
	}
	if err := security.CheckPassword(nu.PasswordHash, "secret123"); err != nil {
		t.Fatalf("password not hashed correctly: %v", err)
	}
}

func TestEnsureSuperuserSkips(t *testing.T) {
	ctx := context.Background()

	users := &fakeUsers{existing: map[string]user.User{}}
	if err := EnsureSuperuser(ctx, users, config.Admin{}); err != nil {
		t.Fatalf("EnsureSuperuser: %v", err)
	}
	if len(users.created) != 0 {
		t.Fatalf("no credentials should create nothing")
	}

	users = &fakeUsers{existing: map[string]user.User{"root@example.com": {Email: "root@example.com"}}}
	if err := EnsureSuperuser(ctx, users, config.Admin{Email: "root@example.com", Password: "secret123"}); err != nil {
		t.Fatalf("EnsureSuperuser: %v", err)
	}
	if len(users.created) != 0 {
		t.Fatalf("existing user should not be recreated")
	}

	users = &fakeUsers{existing: map[string]user.User{}, createErr: user.ErrEmailTaken}
	if err := EnsureSuperuser(ctx, users, config.Admin{Email: "root@example.com", Password: "secret123"}); err != nil {
		t.Fatalf("lost race should not fail boot: %v", err)
	}
}
