package permissions

import (
	"context"
	"errors"
	"fmt"

	"vet-clinic/internal/platform/apperr"
	"vet-clinic/internal/platform/logger"
)

// Authorizer resuelve la tabla del rol del principal (cache de sesión -> store ->
// defaults si el store no responde) y evalúa HasPermission.
type Authorizer struct {
	store *Store
	cache *SessionCache
	log   logger.Logger
}

func NewAuthorizer(store *Store, cache *SessionCache, log logger.Logger) *Authorizer {
	if cache == nil {
		cache = NewSessionCache()
	}
	if log == nil {
		log = logger.Nop()
	}
	a := &Authorizer{
		store: store,
		cache: cache,
		log:   log.With(logger.Fields{"component": "permissions.authorizer"}),
	}
	store.OnChange(cache.InvalidateRole)
	return a
}

// Permissions devuelve la tabla efectiva del rol de p.
//
// Si el store está Unavailable se usan los defaults compilados y no se cachean,
// para que la próxima request vuelva a intentar el store.
func (a *Authorizer) Permissions(ctx context.Context, p Principal) ([]Permission, error) {
	if p.IsZero() {
		return nil, nil
	}
	if perms, ok := a.cache.Get(p); ok {
		return perms, nil
	}

	perms, err := a.store.GetRolePermissions(ctx, p.Role)
	if err != nil {
		if errors.Is(err, apperr.ErrUnavailable) {
			a.log.Warn("permission store unavailable, using defaults", logger.Fields{
				"role":  p.Role,
				"error": err,
			})
			return DefaultFor(p.Role), nil
		}
		return nil, err
	}

	a.cache.Put(p, perms)
	return perms, nil
}

func (a *Authorizer) HasPermission(ctx context.Context, p Principal, resource Resource, action Action) (bool, error) {
	if p.IsZero() {
		return false, nil
	}
	perms, err := a.Permissions(ctx, p)
	if err != nil {
		return false, err
	}
	return HasPermission(perms, resource, action), nil
}

// Authorize es el punto donde una denegación se convierte en error (Forbidden).
func (a *Authorizer) Authorize(ctx context.Context, p Principal, resource Resource, action Action) error {
	ok, err := a.HasPermission(ctx, p, resource, action)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Forbidden("authorize", fmt.Sprintf("%s:%s", resource, action))
	}
	return nil
}

// RoleChanged descarta las sesiones cacheadas de uid.
func (a *Authorizer) RoleChanged(uid string) {
	a.cache.DropUser(uid)
	a.log.Debug("session cache dropped after role change", logger.Fields{"uid": uid})
}

// EndSession descarta la entrada de una sesión (logout).
func (a *Authorizer) EndSession(sessionID string) {
	a.cache.Drop(sessionID)
}
