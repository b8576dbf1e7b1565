package consultations

import (
	"time"

	"vet-clinic/internal/platform/apperr"
)

type Estado string

const (
	EstadoPendiente Estado = "Pendiente"
	EstadoRealizada Estado = "Realizada"
)

func (e Estado) Valid() bool {
	return e == EstadoPendiente || e == EstadoRealizada
}

// Articulo es un insumo consumido en la consulta. StockAtTimeOfUse es el stock
// leído justo antes de escribir la consulta.
type Articulo struct {
	ItemID           string
	Nombre           string
	Quantity         int
	UnitPrice        float64
	StockAtTimeOfUse int
}

type Dueno struct {
	ID     string
	Nombre string
}

// Mascota es la copia denormalizada del paciente que viaja con la consulta.
type Mascota struct {
	ID      string
	Nombre  string
	DuenoID string
	Dueno   *Dueno
}

// Consultation vive en owners/{OwnerID}/patients/{PatientID}/consultations/{ID}.
type Consultation struct {
	ID             string
	OwnerID        string
	PatientID      string
	VeterinarianID string
	AppointmentID  string

	Fecha time.Time

	Motivo      string
	Sintomas    string
	Diagnostico string
	Tratamiento string

	Estado        Estado
	ProximaCita   string // YYYY-MM-DD opcional
	CostoConsulta float64

	ArticulosUsados []Articulo
	Mascota         Mascota

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ResolvePath deriva (ownerID, patientID) desde los campos denormalizados de
// la mascota. Nunca adivina: sin dueño => IdentityUnresolved.
func (c Consultation) ResolvePath() (string, string, error) {
	ownerID := c.Mascota.DuenoID
	if ownerID == "" && c.Mascota.Dueno != nil {
		ownerID = c.Mascota.Dueno.ID
	}
	patientID := c.Mascota.ID
	if patientID == "" {
		patientID = c.PatientID
	}

	if ownerID == "" || patientID == "" {
		return "", "", apperr.E(apperr.ErrIdentityUnresolved, "consultations.resolve_path", c.ID, nil)
	}
	return ownerID, patientID, nil
}

// Total = costo de consulta + insumos.
func (c Consultation) Total() float64 {
	total := c.CostoConsulta
	for _, a := range c.ArticulosUsados {
		total += float64(a.Quantity) * a.UnitPrice
	}
	return total
}
