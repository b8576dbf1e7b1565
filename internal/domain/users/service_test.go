package users

import (
	"context"
	"errors"
	"testing"

	"vet-clinic/internal/domain/permissions"
	"vet-clinic/internal/platform/apperr"
	"vet-clinic/internal/ports/notify"
)

type testRepo struct {
	byUID map[string]User
}

func newTestRepo() *testRepo {
	return &testRepo{byUID: map[string]User{}}
}

func (r *testRepo) Create(ctx context.Context, u User) error {
	if _, ok := r.byUID[u.UID]; ok {
		return apperr.E(apperr.ErrConflict, "test.create", u.UID, nil)
	}
	r.byUID[u.UID] = u
	return nil
}

func (r *testRepo) Update(ctx context.Context, u User) error {
	if _, ok := r.byUID[u.UID]; !ok {
		return apperr.NotFound("test.update", u.UID)
	}
	r.byUID[u.UID] = u
	return nil
}

func (r *testRepo) GetByUID(ctx context.Context, uid string) (User, error) {
	u, ok := r.byUID[uid]
	if !ok {
		return User{}, apperr.NotFound("test.get", uid)
	}
	return u, nil
}

func (r *testRepo) List(ctx context.Context) ([]User, error) {
	out := make([]User, 0, len(r.byUID))
	for _, u := range r.byUID {
		out = append(out, u)
	}
	return out, nil
}

func (r *testRepo) CountByRole(ctx context.Context, role permissions.Role) (int, error) {
	n := 0
	for _, u := range r.byUID {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

type recordingBus struct {
	events []notify.RoleChanged
}

func (b *recordingBus) PublishRoleChanged(ctx context.Context, ev notify.RoleChanged) error {
	b.events = append(b.events, ev)
	return nil
}

func (b *recordingBus) SubscribeRoleChanged(fn func(notify.RoleChanged)) func() { return func() {} }

func TestService_EnsureCreatesWithDefaultRoleOnce(t *testing.T) {
	svc := NewService(newTestRepo(), nil, nil)
	ctx := context.Background()

	u, err := svc.Ensure(ctx, "u1", "vet@clinic.cl", "Ana")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Role != DefaultRole {
		t.Fatalf("expected default role, got %s", u.Role)
	}

	again, err := svc.Ensure(ctx, "u1", "other@clinic.cl", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.Email != "vet@clinic.cl" {
		t.Fatalf("existing user must be returned untouched")
	}

	if _, err := svc.Ensure(ctx, "  ", "", ""); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestService_ChangeRolePublishes(t *testing.T) {
	repo := newTestRepo()
	bus := &recordingBus{}
	svc := NewService(repo, bus, nil)
	ctx := context.Background()

	_, _ = svc.Ensure(ctx, "u1", "", "")

	u, err := svc.ChangeRole(ctx, "u1", permissions.RoleVeterinarian)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Role != permissions.RoleVeterinarian {
		t.Fatalf("expected veterinarian, got %s", u.Role)
	}
	if len(bus.events) != 1 || bus.events[0].From != "receptionist" || bus.events[0].To != "veterinarian" {
		t.Fatalf("unexpected events: %+v", bus.events)
	}

	// mismo rol => sin evento
	if _, err := svc.ChangeRole(ctx, "u1", permissions.RoleVeterinarian); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bus.events) != 1 {
		t.Fatalf("expected no new event")
	}
}

func TestService_LastAdminCannotBeDemoted(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	if _, err := svc.Bootstrap(ctx, "admin-1", "", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := svc.ChangeRole(ctx, "admin-1", permissions.RoleReceptionist)
	if !errors.Is(err, ErrLastAdmin) || !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected last admin conflict, got %v", err)
	}

	if _, err := svc.Bootstrap(ctx, "admin-2", "", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.ChangeRole(ctx, "admin-1", permissions.RoleReceptionist); err != nil {
		t.Fatalf("expected demotion with another admin present, got %v", err)
	}
}
