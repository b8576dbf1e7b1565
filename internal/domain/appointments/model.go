package appointments

import "time"

type Status string

const (
	StatusScheduled Status = "Scheduled"
	StatusConfirmed Status = "Confirmed"
	StatusCompleted Status = "Completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusCompleted:
		return true
	}
	return false
}

// CanTransition: Completed es terminal, no hay vuelta atrás.
func (s Status) CanTransition(to Status) bool {
	switch s {
	case StatusScheduled:
		return to == StatusConfirmed || to == StatusCompleted
	case StatusConfirmed:
		return to == StatusCompleted
	}
	return false
}

// Appointment es un registro plano (colección "appointments"), fuera de la
// jerarquía owner/patient. PatientID/OwnerID pueden venir vacíos (cupo sin paciente).
type Appointment struct {
	ID           string
	Date         string // YYYY-MM-DD, hora local de la clínica
	Time         string // HH:mm
	PatientID    string
	PatientName  string
	OwnerID      string
	OwnerName    string
	Type         string
	Veterinarian string
	Duration     int // minutos
	Notes        string
	Status       Status
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsBare indica un cupo sin paciente/dueño vinculado.
func (a Appointment) IsBare() bool {
	return a.PatientID == "" || a.OwnerID == ""
}

// Binding son las identidades resueltas que el workflow escribe al completar.
type Binding struct {
	OwnerID      string
	OwnerName    string
	PatientID    string
	PatientName  string
	Veterinarian string
}
