package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"vet-clinic/internal/domain/permissions"
	"vet-clinic/internal/platform/apperr"
	"vet-clinic/internal/platform/logger"
	"vet-clinic/internal/ports/notify"
)

var (
	ErrInvalidInput = apperr.E(apperr.ErrValidation, "users", "", errors.New("invalid input"))
	ErrLastAdmin    = apperr.E(apperr.ErrConflict, "users.change_role", "", errors.New("cannot demote the last admin"))
)

type Service struct {
	repo Repository
	bus  notify.Bus
	log  logger.Logger
	now  func() time.Time
}

func NewService(repo Repository, bus notify.Bus, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo: repo,
		bus:  bus,
		log:  log.With(logger.Fields{"component": "users"}),
		now:  time.Now,
	}
}

// Ensure devuelve el usuario uid; si no existe lo crea con DefaultRole.
func (s *Service) Ensure(ctx context.Context, uid, email, nombre string) (User, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return User{}, ErrInvalidInput
	}

	u, err := s.repo.GetByUID(ctx, uid)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return User{}, err
	}

	return s.create(ctx, uid, email, nombre, DefaultRole)
}

// Bootstrap crea (o promueve) uid como admin. Solo lo usa el comando seed.
func (s *Service) Bootstrap(ctx context.Context, uid, email, nombre string) (User, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return User{}, ErrInvalidInput
	}

	u, err := s.repo.GetByUID(ctx, uid)
	if errors.Is(err, apperr.ErrNotFound) {
		return s.create(ctx, uid, email, nombre, permissions.RoleAdmin)
	}
	if err != nil {
		return User{}, err
	}
	if u.Role == permissions.RoleAdmin {
		return u, nil
	}

	u.Role = permissions.RoleAdmin
	u.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *Service) create(ctx context.Context, uid, email, nombre string, role permissions.Role) (User, error) {
	now := s.now()
	u := User{
		UID:       uid,
		Email:     strings.TrimSpace(email),
		Nombre:    strings.TrimSpace(nombre),
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return User{}, err
	}
	s.log.Info("user created", logger.Fields{"uid": uid, "role": role})
	return u, nil
}

func (s *Service) Get(ctx context.Context, uid string) (User, error) {
	return s.repo.GetByUID(ctx, strings.TrimSpace(uid))
}

// RoleOf relee el rol actual de uid (se llama en cada request).
func (s *Service) RoleOf(ctx context.Context, uid string) (permissions.Role, error) {
	u, err := s.repo.GetByUID(ctx, strings.TrimSpace(uid))
	if err != nil {
		return "", err
	}
	return u.Role, nil
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// ChangeRole actualiza el rol y publica RoleChanged. No permite dejar la
// clínica sin admins.
func (s *Service) ChangeRole(ctx context.Context, uid string, role permissions.Role) (User, error) {
	if !role.Valid() {
		return User{}, ErrInvalidInput
	}

	u, err := s.repo.GetByUID(ctx, strings.TrimSpace(uid))
	if err != nil {
		return User{}, err
	}
	if u.Role == role {
		return u, nil
	}

	if u.Role == permissions.RoleAdmin {
		admins, err := s.repo.CountByRole(ctx, permissions.RoleAdmin)
		if err != nil {
			return User{}, err
		}
		if admins <= 1 {
			return User{}, ErrLastAdmin
		}
	}

	from := u.Role
	u.Role = role
	u.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, u); err != nil {
		return User{}, err
	}

	s.log.Info("user role changed", logger.Fields{"uid": u.UID, "from": from, "to": role})

	if s.bus != nil {
		ev := notify.RoleChanged{UID: u.UID, From: string(from), To: string(role)}
		if err := s.bus.PublishRoleChanged(ctx, ev); err != nil {
			// el rol se relee por request; el aviso solo adelanta la invalidación
			s.log.Warn("role change notification failed", logger.Fields{"uid": u.UID, "error": err})
		}
	}
	return u, nil
}
