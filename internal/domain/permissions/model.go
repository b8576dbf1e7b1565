package permissions

import (
	"strings"
)

type Role string

const (
	RoleAdmin        Role = "admin"
	RoleVeterinarian Role = "veterinarian"
	RoleReceptionist Role = "receptionist"
)

// Roles en orden estable (para listados y seeding).
func Roles() []Role {
	return []Role{RoleAdmin, RoleVeterinarian, RoleReceptionist}
}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleVeterinarian, RoleReceptionist:
		return true
	}
	return false
}

func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}

type Resource string

const (
	ResourcePatients      Resource = "patients"
	ResourceOwners        Resource = "owners"
	ResourceAppointments  Resource = "appointments"
	ResourceConsultations Resource = "consultations"
	ResourceInventory     Resource = "inventory"
	ResourceUsers         Resource = "users"
	ResourceSettings      Resource = "settings"
	ResourceDashboard     Resource = "dashboard"
)

func Resources() []Resource {
	return []Resource{
		ResourcePatients,
		ResourceOwners,
		ResourceAppointments,
		ResourceConsultations,
		ResourceInventory,
		ResourceUsers,
		ResourceSettings,
		ResourceDashboard,
	}
}

func (r Resource) Valid() bool {
	for _, known := range Resources() {
		if r == known {
			return true
		}
	}
	return false
}

type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

func Actions() []Action {
	return []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete}
}

func (a Action) Valid() bool {
	switch a {
	case ActionCreate, ActionRead, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

// Permission agrupa las acciones concedidas sobre un recurso.
// Dentro de la lista de un rol, Resource es único.
type Permission struct {
	Resource Resource `json:"resource"`
	Actions  []Action `json:"actions"`
}

// Table es la matriz completa rol -> permisos.
type Table map[Role][]Permission

// Principal es el usuario autenticado de la request. El rol se relee en cada
// request; SessionID vacío => sin cache de sesión.
type Principal struct {
	UID       string
	Role      Role
	SessionID string
}

func (p Principal) IsZero() bool {
	return strings.TrimSpace(p.UID) == "" || !p.Role.Valid()
}

// Normalize deja una lista con una entrada por cada recurso conocido (en orden),
// descarta recursos/acciones desconocidos y deduplica acciones.
func Normalize(perms []Permission) []Permission {
	granted := make(map[Resource]map[Action]bool, len(perms))
	for _, p := range perms {
		if !p.Resource.Valid() {
			continue
		}
		set := granted[p.Resource]
		if set == nil {
			set = make(map[Action]bool, 4)
			granted[p.Resource] = set
		}
		for _, a := range p.Actions {
			if a.Valid() {
				set[a] = true
			}
		}
	}

	out := make([]Permission, 0, len(Resources()))
	for _, res := range Resources() {
		actions := make([]Action, 0, 4)
		for _, a := range Actions() {
			if granted[res][a] {
				actions = append(actions, a)
			}
		}
		out = append(out, Permission{Resource: res, Actions: actions})
	}
	return out
}

// HasPermission es la única función de evaluación. Recurso o acción
// desconocidos => false.
func HasPermission(perms []Permission, resource Resource, action Action) bool {
	if !resource.Valid() || !action.Valid() {
		return false
	}
	for _, p := range perms {
		if p.Resource != resource {
			continue
		}
		for _, a := range p.Actions {
			if a == action {
				return true
			}
		}
		return false
	}
	return false
}

func clonePerms(perms []Permission) []Permission {
	out := make([]Permission, len(perms))
	for i, p := range perms {
		out[i] = Permission{Resource: p.Resource, Actions: append(make([]Action, 0, len(p.Actions)), p.Actions...)}
	}
	return out
}
