package appointments

import "context"

type ListFilter struct {
	Date   string
	Status Status
}

type Repository interface {
	Create(ctx context.Context, a Appointment) error
	Get(ctx context.Context, id string) (Appointment, error)
	Update(ctx context.Context, a Appointment) error
	Delete(ctx context.Context, id string) error
	// List ordena por date+time ascendente.
	List(ctx context.Context, filter ListFilter) ([]Appointment, error)
	ListByPatient(ctx context.Context, patientID string) ([]Appointment, error)
}
