package memory

import (
	"context"
	"sync"

	"vet-clinic/internal/domain/permissions"
	"vet-clinic/internal/platform/apperr"
)

type roleRepo struct {
	mu     sync.RWMutex
	byRole map[permissions.Role][]permissions.Permission
}

func NewRoleRepo() permissions.Repository {
	return &roleRepo{
		byRole: make(map[permissions.Role][]permissions.Permission),
	}
}

func (r *roleRepo) Get(ctx context.Context, role permissions.Role) ([]permissions.Permission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	perms, ok := r.byRole[role]
	if !ok {
		return nil, apperr.NotFound("roles.get", string(role))
	}
	return copyPerms(perms), nil
}

// CreateIfAbsent es atómico bajo el lock: dos seeds concurrentes escriben una vez.
func (r *roleRepo) CreateIfAbsent(ctx context.Context, role permissions.Role, perms []permissions.Permission) ([]permissions.Permission, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byRole[role]; ok {
		return copyPerms(existing), false, nil
	}
	r.byRole[role] = copyPerms(perms)
	return copyPerms(perms), true, nil
}

func (r *roleRepo) Replace(ctx context.Context, role permissions.Role, perms []permissions.Permission) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byRole[role] = copyPerms(perms)
	return nil
}

func copyPerms(in []permissions.Permission) []permissions.Permission {
	out := make([]permissions.Permission, 0, len(in))
	for _, p := range in {
		out = append(out, permissions.Permission{
			Resource: p.Resource,
			Actions:  append(make([]permissions.Action, 0, len(p.Actions)), p.Actions...),
		})
	}
	return out
}
