package owners

import "context"

// Repository cubre la rama jerárquica owner -> patients. Los borrados no
// cascadean: el workflow hace el fan-out explícito.
type Repository interface {
	CreateOwner(ctx context.Context, o Owner) error
	GetOwner(ctx context.Context, ownerID string) (Owner, error)
	FindOwnerByRUT(ctx context.Context, rut string) (Owner, error)
	ListOwners(ctx context.Context) ([]Owner, error)
	UpdateOwner(ctx context.Context, o Owner) error
	DeleteOwner(ctx context.Context, ownerID string) error

	CreatePatient(ctx context.Context, p Patient) error
	GetPatient(ctx context.Context, ownerID, patientID string) (Patient, error)
	ListPatients(ctx context.Context, ownerID string) ([]Patient, error)
	UpdatePatient(ctx context.Context, p Patient) error
	DeletePatient(ctx context.Context, ownerID, patientID string) error
}
