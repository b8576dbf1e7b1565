package permissions

import "context"

// Repository persiste la tabla por rol (colección plana "roles").
//
// Get devuelve apperr.ErrNotFound si el rol no fue sembrado aún.
// CreateIfAbsent escribe perms solo si el rol no existe y devuelve lo que quedó
// guardado (lo existente o lo recién creado), junto con si hubo escritura.
type Repository interface {
	Get(ctx context.Context, role Role) ([]Permission, error)
	CreateIfAbsent(ctx context.Context, role Role, perms []Permission) ([]Permission, bool, error)
	Replace(ctx context.Context, role Role, perms []Permission) error
}
