package activity

import "time"

type Type string

const (
	TypeConsultationCreated  Type = "CONSULTATION_CREATED"
	TypeStockConsumed        Type = "STOCK_CONSUMED"
	TypeAppointmentCompleted Type = "APPOINTMENT_COMPLETED"
	TypeConsultationRealized Type = "CONSULTATION_REALIZED"
)

func (t Type) Valid() bool {
	switch t {
	case TypeConsultationCreated, TypeStockConsumed, TypeAppointmentCompleted, TypeConsultationRealized:
		return true
	}
	return false
}

type Actor struct {
	UID  string
	Role string
}

// Entry es una línea de la línea de tiempo del paciente. Ref apunta al
// registro que la originó (consulta, cita o ítem de inventario).
type Entry struct {
	ID        string
	OwnerID   string
	PatientID string

	Type Type

	OccurredAt time.Time
	RecordedAt time.Time

	Title string
	Notes string

	Actor Actor
	Ref   string
}
