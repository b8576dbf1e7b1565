package users

import (
	"time"

	"vet-clinic/internal/domain/permissions"
)

type User struct {
	UID       string
	Email     string
	Nombre    string
	Role      permissions.Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DefaultRole es el rol asignado al primer login de un usuario desconocido.
const DefaultRole = permissions.RoleReceptionist
