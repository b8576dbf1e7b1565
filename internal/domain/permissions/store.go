package permissions

import (
	"context"
	"errors"
	"slices"
	"sync"

	"vet-clinic/internal/platform/apperr"
	"vet-clinic/internal/platform/logger"

	"golang.org/x/sync/singleflight"
)

var (
	ErrAdminImmutable = apperr.E(apperr.ErrForbidden, "permissions.set", string(RoleAdmin), errors.New("admin permissions are fixed"))
	ErrUnknownRole    = apperr.E(apperr.ErrValidation, "permissions", "", errors.New("unknown role"))
)

// Store persiste y siembra la tabla de permisos por rol.
type Store struct {
	repo  Repository
	log   logger.Logger
	group singleflight.Group

	mu        sync.RWMutex
	listeners []func(Role)
}

func NewStore(repo Repository, log logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	return &Store{
		repo: repo,
		log:  log.With(logger.Fields{"component": "permissions.store"}),
	}
}

// OnChange registra un hook que se llama tras reescribir los permisos de un rol.
func (s *Store) OnChange(fn func(Role)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// GetRolePermissions devuelve lo persistido; si el rol no existe lo siembra con el
// default compilado. Las llamadas concurrentes para el mismo rol comparten una
// sola lectura/escritura.
func (s *Store) GetRolePermissions(ctx context.Context, role Role) ([]Permission, error) {
	if !role.Valid() {
		return nil, ErrUnknownRole
	}

	// la lectura compartida no debe caer si se cancela el primer llamador
	shared := context.WithoutCancel(ctx)
	v, err, _ := s.group.Do(string(role), func() (any, error) {
		perms, err := s.repo.Get(shared, role)
		if err == nil {
			return Normalize(perms), nil
		}
		if !errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
		return s.seedRole(shared, role)
	})
	if err != nil {
		return nil, err
	}
	return clonePerms(v.([]Permission)), nil
}

// SetRolePermissions reemplaza el set completo. admin no es configurable.
func (s *Store) SetRolePermissions(ctx context.Context, role Role, perms []Permission) error {
	if !role.Valid() {
		return ErrUnknownRole
	}
	if role == RoleAdmin {
		return ErrAdminImmutable
	}

	if err := s.repo.Replace(ctx, role, Normalize(perms)); err != nil {
		return err
	}

	s.log.Info("role permissions replaced", logger.Fields{"role": role})
	s.notify(role)
	return nil
}

// GetAllRolePermissions devuelve la tabla completa, sembrando los roles faltantes.
func (s *Store) GetAllRolePermissions(ctx context.Context) (Table, error) {
	out := make(Table, len(Roles()))
	for _, role := range Roles() {
		perms, err := s.GetRolePermissions(ctx, role)
		if err != nil {
			return nil, err
		}
		out[role] = perms
	}
	return out, nil
}

// Seed siembra todos los roles que falten (comando seed / arranque).
func (s *Store) Seed(ctx context.Context) error {
	_, err := s.GetAllRolePermissions(ctx)
	return err
}

// seedRole es el único camino que escribe permisos de admin.
func (s *Store) seedRole(ctx context.Context, role Role) ([]Permission, error) {
	stored, created, err := s.repo.CreateIfAbsent(ctx, role, DefaultFor(role))
	if err != nil {
		return nil, err
	}
	if created {
		s.log.Info("role permissions seeded", logger.Fields{"role": role})
	}
	return Normalize(stored), nil
}

func (s *Store) notify(role Role) {
	s.mu.RLock()
	fns := slices.Clone(s.listeners)
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(role)
	}
}
