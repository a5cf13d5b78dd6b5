package memory

import (
	"context"
	"sync"

	"github.com/geocoder89/labhub/internal/domain/permission"
	"github.com/geocoder89/labhub/internal/domain/role"
)

type RolesRepo struct {
	mu    sync.RWMutex
	items map[role.Kind]role.Role
}

func NewRolesRepo() *RolesRepo {
	return &RolesRepo{items: make(map[role.Kind]role.Role)}
}

func (r *RolesRepo) Ensure(_ context.Context, kind role.Kind) (role.Role, error) {
	if !kind.Valid() {
		return role.Role{}, role.ErrNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.items[kind]
	if !ok {
		existing = role.New(kind)
	}
	existing.Permissions = kind.Permissions()
	r.items[kind] = existing

	return cloneRole(existing), nil
}

func (r *RolesRepo) Get(_ context.Context, kind role.Kind) (role.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ro, ok := r.items[kind]
	if !ok {
		return role.Role{}, role.ErrNotFound
	}
	return cloneRole(ro), nil
}

// SetActive flips a role on or off.
func (r *RolesRepo) SetActive(_ context.Context, kind role.Kind, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ro, ok := r.items[kind]
	if !ok {
		return role.ErrNotFound
	}
	ro.IsActive = active
	r.items[kind] = ro
	return nil
}

func (r *RolesRepo) lookup(name string) (role.Role, bool) {
	kind, ok := role.KindFromName(name)
	if !ok {
		return role.Role{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	ro, ok := r.items[kind]
	return cloneRole(ro), ok
}

func cloneRole(ro role.Role) role.Role {
	ro.Permissions = append([]permission.Key(nil), ro.Permissions...)
	return ro
}
