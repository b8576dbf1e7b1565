package consultations

import "context"

// Repository de la rama jerárquica. Toda operación lleva (ownerID, patientID, id).
type Repository interface {
	Create(ctx context.Context, c Consultation) error
	Get(ctx context.Context, ownerID, patientID, id string) (Consultation, error)
	Update(ctx context.Context, c Consultation) error
	Delete(ctx context.Context, ownerID, patientID, id string) error
	ListByPatient(ctx context.Context, ownerID, patientID string) ([]Consultation, error)

	// ListAll recorre todas las ramas (collection group) ordenado por Fecha desc.
	// limit <= 0 => sin límite.
	ListAll(ctx context.Context, limit int) ([]Consultation, error)
}
