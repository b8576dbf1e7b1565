package memory

import (
	"context"
	"sort"
	"sync"

	"vet-clinic/internal/domain/permissions"
	"vet-clinic/internal/domain/users"
	"vet-clinic/internal/platform/apperr"
)

type userRepo struct {
	mu    sync.RWMutex
	byUID map[string]users.User
}

func NewUserRepo() users.Repository {
	return &userRepo{
		byUID: make(map[string]users.User),
	}
}

func (r *userRepo) Create(ctx context.Context, u users.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byUID[u.UID]; exists {
		return apperr.E(apperr.ErrConflict, "users.create", u.UID, nil)
	}
	r.byUID[u.UID] = u
	return nil
}

func (r *userRepo) Update(ctx context.Context, u users.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byUID[u.UID]; !ok {
		return apperr.NotFound("users.update", u.UID)
	}
	r.byUID[u.UID] = u
	return nil
}

func (r *userRepo) GetByUID(ctx context.Context, uid string) (users.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byUID[uid]
	if !ok {
		return users.User{}, apperr.NotFound("users.get", uid)
	}
	return u, nil
}

func (r *userRepo) List(ctx context.Context) ([]users.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]users.User, 0, len(r.byUID))
	for _, u := range r.byUID {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (r *userRepo) CountByRole(ctx context.Context, role permissions.Role) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, u := range r.byUID {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}
