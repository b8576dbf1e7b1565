package appointments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"vet-clinic/internal/platform/apperr"
	"vet-clinic/internal/platform/validate"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput     = apperr.E(apperr.ErrValidation, "appointments", "", errors.New("invalid input"))
	ErrBadTransition    = apperr.E(apperr.ErrValidation, "appointments", "", errors.New("invalid status transition"))
	ErrAlreadyCompleted = apperr.E(apperr.ErrValidation, "appointments", "", errors.New("appointment is completed"))
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

type ScheduleInput struct {
	Date         string `json:"date" validate:"required,datetime=2006-01-02"`
	Time         string `json:"time" validate:"required,hhmm"`
	PatientID    string `json:"patientId"`
	PatientName  string `json:"patientName"`
	OwnerID      string `json:"ownerId"`
	OwnerName    string `json:"ownerName"`
	Type         string `json:"type" validate:"required"`
	Veterinarian string `json:"veterinarian"`
	Duration     int    `json:"duration" validate:"gte=0"`
	Notes        string `json:"notes"`
}

func (s *Service) Schedule(ctx context.Context, in ScheduleInput) (Appointment, error) {
	in.Date = strings.TrimSpace(in.Date)
	in.Time = strings.TrimSpace(in.Time)
	in.Type = strings.TrimSpace(in.Type)
	if err := validate.Struct("appointments.schedule", in); err != nil {
		return Appointment{}, err
	}

	now := s.now()
	a := Appointment{
		ID:           uuid.NewString(),
		Date:         in.Date,
		Time:         in.Time,
		PatientID:    strings.TrimSpace(in.PatientID),
		PatientName:  strings.TrimSpace(in.PatientName),
		OwnerID:      strings.TrimSpace(in.OwnerID),
		OwnerName:    strings.TrimSpace(in.OwnerName),
		Type:         in.Type,
		Veterinarian: strings.TrimSpace(in.Veterinarian),
		Duration:     in.Duration,
		Notes:        strings.TrimSpace(in.Notes),
		Status:       StatusScheduled,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return Appointment{}, err
	}
	return a, nil
}

func (s *Service) Get(ctx context.Context, id string) (Appointment, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Appointment{}, ErrInvalidInput
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Appointment, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperr.Validation("appointments.list", "status must be Scheduled, Confirmed or Completed")
	}
	return s.repo.List(ctx, filter)
}

func (s *Service) ListByPatient(ctx context.Context, patientID string) ([]Appointment, error) {
	return s.repo.ListByPatient(ctx, patientID)
}

type UpdateInput struct {
	Date         *string `json:"date"`
	Time         *string `json:"time"`
	Type         *string `json:"type"`
	Veterinarian *string `json:"veterinarian"`
	Duration     *int    `json:"duration"`
	Notes        *string `json:"notes"`
}

// Update reprograma o edita. Last-write-wins: no hay control de versión.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Appointment, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return Appointment{}, err
	}
	if a.Status == StatusCompleted {
		return Appointment{}, ErrAlreadyCompleted
	}

	if in.Date != nil {
		a.Date = strings.TrimSpace(*in.Date)
	}
	if in.Time != nil {
		a.Time = strings.TrimSpace(*in.Time)
	}
	if in.Type != nil {
		a.Type = strings.TrimSpace(*in.Type)
	}
	if in.Veterinarian != nil {
		a.Veterinarian = strings.TrimSpace(*in.Veterinarian)
	}
	if in.Duration != nil {
		a.Duration = *in.Duration
	}
	if in.Notes != nil {
		a.Notes = strings.TrimSpace(*in.Notes)
	}

	check := ScheduleInput{Date: a.Date, Time: a.Time, Type: a.Type, Duration: a.Duration}
	if err := validate.Struct("appointments.update", check); err != nil {
		return Appointment{}, err
	}

	a.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, a); err != nil {
		return Appointment{}, err
	}
	return a, nil
}

func (s *Service) Confirm(ctx context.Context, id string) (Appointment, error) {
	return s.transition(ctx, id, StatusConfirmed, nil)
}

// Complete cierra la cita y vincula las identidades resueltas por el workflow.
func (s *Service) Complete(ctx context.Context, id string, b Binding) (Appointment, error) {
	return s.transition(ctx, id, StatusCompleted, &b)
}

func (s *Service) transition(ctx context.Context, id string, to Status, b *Binding) (Appointment, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return Appointment{}, err
	}
	if !a.Status.CanTransition(to) {
		return Appointment{}, apperr.E(apperr.ErrValidation, "appointments.transition", a.ID,
			fmt.Errorf("%w: %s -> %s", ErrBadTransition, a.Status, to))
	}

	a.Status = to
	if b != nil {
		a.OwnerID = b.OwnerID
		a.OwnerName = b.OwnerName
		a.PatientID = b.PatientID
		a.PatientName = b.PatientName
		if strings.TrimSpace(b.Veterinarian) != "" {
			a.Veterinarian = b.Veterinarian
		}
	}
	a.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, a); err != nil {
		return Appointment{}, err
	}
	return a, nil
}

// Remove borra la cita. Solo por acción explícita del usuario o cascada de paciente.
func (s *Service) Remove(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrInvalidInput
	}
	return s.repo.Delete(ctx, id)
}
