package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/geocoder89/labhub/internal/authz"
	"github.com/geocoder89/labhub/internal/domain/permission"
	"github.com/geocoder89/labhub/internal/domain/role"
	"github.com/geocoder89/labhub/internal/domain/user"
	"github.com/google/uuid"
)

type UsersRepo struct {
	mu     sync.RWMutex
	items  map[string]user.User
	grants map[string]permission.Set
	roles  *RolesRepo
}

func NewUsersRepo(roles *RolesRepo) *UsersRepo {
	return &UsersRepo{
		items:  make(map[string]user.User),
		grants: make(map[string]permission.Set),
		roles:  roles,
	}
}

func (r *UsersRepo) Create(_ context.Context, nu user.NewUser) (user.User, error) {
	var roleName *string
	if nu.Role.Valid() {
		if _, ok := r.roles.lookup(nu.Role.Name()); !ok {
			return user.User{}, role.ErrNotFound
		}
		name := nu.Role.Name()
		roleName = &name
	}

	now := time.Now().UTC()
	u := user.User{
		ID:           uuid.NewString(),
		Email:        nu.Email,
		PasswordHash: nu.PasswordHash,
		Name:         nu.Name,
		IsActive:     true,
		IsStaff:      nu.IsStaff,
		IsSuperuser:  nu.IsSuperuser,
		RoleName:     roleName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.items {
		if existing.Email == u.Email {
			return user.User{}, user.ErrEmailTaken
		}
	}

	r.items[u.ID] = u
	return u, nil
}

func (r *UsersRepo) GetByEmail(_ context.Context, email string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.items {
		if u.Email == email {
			return u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (r *UsersRepo) GetByID(_ context.Context, id string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.items[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (r *UsersRepo) Update(_ context.Context, id string, c user.Changes) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.items[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	if c.Empty() {
		return u, nil
	}

	if c.Email != nil && *c.Email != u.Email {
		for otherID, other := range r.items {
			if otherID != id && other.Email == *c.Email {
				return user.User{}, user.ErrEmailTaken
			}
		}
		u.Email = *c.Email
	}
	if c.Name != nil {
		u.Name = *c.Name
	}
	if c.PasswordHash != nil {
		u.PasswordHash = *c.PasswordHash
	}
	if c.IsActive != nil {
		u.IsActive = *c.IsActive
	}
	u.UpdatedAt = time.Now().UTC()

	r.items[id] = u
	return u, nil
}

func (r *UsersRepo) ListByRole(_ context.Context, kind role.Kind, limit, offset int) ([]user.User, int, error) {
	r.mu.RLock()
	matched := make([]user.User, 0)
	for _, u := range r.items {
		if u.HasRole(kind) {
			matched = append(matched, u)
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	return page(matched, limit, offset), len(matched), nil
}

func (r *UsersRepo) GrantPermissions(_ context.Context, userID string, keys ...permission.Key) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[userID]; !ok {
		return user.ErrNotFound
	}

	set, ok := r.grants[userID]
	if !ok {
		set = permission.NewSet()
		r.grants[userID] = set
	}
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return nil
}

func (r *UsersRepo) LoadPrincipal(_ context.Context, userID string) (authz.Principal, error) {
	r.mu.RLock()
	u, ok := r.items[userID]
	var direct []permission.Key
	for k := range r.grants[userID] {
		direct = append(direct, k)
	}
	r.mu.RUnlock()

	if !ok {
		return authz.Principal{}, user.ErrNotFound
	}

	sort.Slice(direct, func(i, j int) bool { return direct[i] < direct[j] })

	p := authz.Principal{
		UserID:      u.ID,
		Email:       u.Email,
		Name:        u.Name,
		IsActive:    u.IsActive,
		IsStaff:     u.IsStaff,
		IsSuperuser: u.IsSuperuser,
		Permissions: direct,
	}

	if u.RoleName != nil {
		p.Role = *u.RoleName
		if ro, ok := r.roles.lookup(*u.RoleName); ok {
			p.RoleActive = ro.IsActive
			p.RolePermissions = ro.Permissions
		}
	}

	return p, nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
