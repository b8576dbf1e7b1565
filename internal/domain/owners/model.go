package owners

import "time"

// Owner es la raíz de la jerarquía owners/{ownerId}/patients/{patientId}/...
type Owner struct {
	ID        string
	RUT       string // normalizado: 12345678-K
	Nombre    string
	Email     string
	Telefono  string
	Direccion string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Patient vive bajo su Owner; su identidad es (OwnerID, ID).
type Patient struct {
	ID              string
	OwnerID         string
	Nombre          string
	Especie         string
	Raza            string
	Sexo            string
	FechaNacimiento *time.Time
	Microchip       string
	Notas           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
