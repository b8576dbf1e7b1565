package permissions

var (
	crud     = []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete}
	cru      = []Action{ActionCreate, ActionRead, ActionUpdate}
	ru       = []Action{ActionRead, ActionUpdate}
	readOnly = []Action{ActionRead}
)

// Defaults devuelve la tabla compilada. Cada llamada entrega una copia.
func Defaults() Table {
	return Table{
		RoleAdmin: Normalize([]Permission{
			{Resource: ResourcePatients, Actions: crud},
			{Resource: ResourceOwners, Actions: crud},
			{Resource: ResourceAppointments, Actions: crud},
			{Resource: ResourceConsultations, Actions: crud},
			{Resource: ResourceInventory, Actions: crud},
			{Resource: ResourceUsers, Actions: crud},
			{Resource: ResourceSettings, Actions: crud},
			{Resource: ResourceDashboard, Actions: readOnly},
		}),
		RoleVeterinarian: Normalize([]Permission{
			{Resource: ResourcePatients, Actions: cru},
			{Resource: ResourceOwners, Actions: cru},
			{Resource: ResourceAppointments, Actions: ru},
			{Resource: ResourceConsultations, Actions: cru},
			{Resource: ResourceInventory, Actions: ru},
			{Resource: ResourceDashboard, Actions: readOnly},
		}),
		RoleReceptionist: Normalize([]Permission{
			{Resource: ResourcePatients, Actions: cru},
			{Resource: ResourceOwners, Actions: crud},
			{Resource: ResourceAppointments, Actions: crud},
			{Resource: ResourceConsultations, Actions: readOnly},
			{Resource: ResourceInventory, Actions: readOnly},
			{Resource: ResourceDashboard, Actions: readOnly},
		}),
	}
}

// DefaultFor devuelve los permisos compilados de role (nil si no existe).
func DefaultFor(role Role) []Permission {
	return Defaults()[role]
}
