package activity

import "context"

type Repository interface {
	Append(ctx context.Context, e Entry) error
	// ListByPatient ordena por OccurredAt desc.
	ListByPatient(ctx context.Context, ownerID, patientID string, filter ListFilter) ([]Entry, error)
	DeleteByPatient(ctx context.Context, ownerID, patientID string) error
}

type ListFilter struct {
	Types []Type
	Limit int
}
