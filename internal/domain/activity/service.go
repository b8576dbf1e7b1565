package activity

import (
	"context"
	"errors"
	"strings"
	"time"

	"vet-clinic/internal/platform/apperr"

	"github.com/google/uuid"
)

var ErrInvalidInput = apperr.E(apperr.ErrValidation, "activity", "", errors.New("invalid input"))

const (
	defaultLimit = 50
	maxLimit     = 200
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type RecordInput struct {
	Type       Type
	OccurredAt time.Time
	Title      string
	Notes      string
	Ref        string
}

func (s *Service) Record(ctx context.Context, ownerID, patientID string, actor Actor, in RecordInput) (Entry, error) {
	if strings.TrimSpace(ownerID) == "" || strings.TrimSpace(patientID) == "" {
		return Entry{}, ErrInvalidInput
	}
	if !in.Type.Valid() || strings.TrimSpace(actor.UID) == "" {
		return Entry{}, ErrInvalidInput
	}

	now := s.now()
	occurred := in.OccurredAt
	if occurred.IsZero() {
		occurred = now
	}

	e := Entry{
		ID:         uuid.NewString(),
		OwnerID:    ownerID,
		PatientID:  patientID,
		Type:       in.Type,
		OccurredAt: occurred,
		RecordedAt: now,
		Title:      strings.TrimSpace(in.Title),
		Notes:      strings.TrimSpace(in.Notes),
		Actor:      actor,
		Ref:        in.Ref,
	}
	if err := s.repo.Append(ctx, e); err != nil {
		return Entry{}, err
	}
	return e, nil
}

func (s *Service) ListByPatient(ctx context.Context, ownerID, patientID string, filter ListFilter) ([]Entry, error) {
	if strings.TrimSpace(ownerID) == "" || strings.TrimSpace(patientID) == "" {
		return nil, ErrInvalidInput
	}
	for _, t := range filter.Types {
		if !t.Valid() {
			return nil, apperr.Validation("activity.list", "unknown type "+string(t))
		}
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultLimit
	}
	if filter.Limit > maxLimit {
		filter.Limit = maxLimit
	}
	return s.repo.ListByPatient(ctx, ownerID, patientID, filter)
}

// Purge borra la línea de tiempo completa. Solo la usa la cascada de paciente.
func (s *Service) Purge(ctx context.Context, ownerID, patientID string) error {
	return s.repo.DeleteByPatient(ctx, ownerID, patientID)
}
