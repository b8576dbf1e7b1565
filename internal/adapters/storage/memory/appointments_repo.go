package memory

import (
	"context"
	"sort"
	"sync"

	"vet-clinic/internal/domain/appointments"
	"vet-clinic/internal/platform/apperr"
)

type appointmentRepo struct {
	mu   sync.RWMutex
	byID map[string]appointments.Appointment
}

func NewAppointmentRepo() appointments.Repository {
	return &appointmentRepo{
		byID: make(map[string]appointments.Appointment),
	}
}

func (r *appointmentRepo) Create(ctx context.Context, a appointments.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[a.ID]; exists {
		return apperr.E(apperr.ErrConflict, "appointments.create", a.ID, nil)
	}
	r.byID[a.ID] = a
	return nil
}

func (r *appointmentRepo) Get(ctx context.Context, id string) (appointments.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return appointments.Appointment{}, apperr.NotFound("appointments.get", id)
	}
	return a, nil
}

// Update reemplaza el registro (last-write-wins).
func (r *appointmentRepo) Update(ctx context.Context, a appointments.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[a.ID]; !ok {
		return apperr.NotFound("appointments.update", a.ID)
	}
	r.byID[a.ID] = a
	return nil
}

func (r *appointmentRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return apperr.NotFound("appointments.delete", id)
	}
	delete(r.byID, id)
	return nil
}

func (r *appointmentRepo) List(ctx context.Context, filter appointments.ListFilter) ([]appointments.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]appointments.Appointment, 0)
	for _, a := range r.byID {
		if filter.Date != "" && a.Date != filter.Date {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		out = append(out, a)
	}
	sortByDateTime(out)
	return out, nil
}

func (r *appointmentRepo) ListByPatient(ctx context.Context, patientID string) ([]appointments.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]appointments.Appointment, 0)
	if patientID == "" {
		return out, nil
	}
	for _, a := range r.byID {
		if a.PatientID == patientID {
			out = append(out, a)
		}
	}
	sortByDateTime(out)
	return out, nil
}

// YYYY-MM-DD y HH:mm ordenan bien como strings.
func sortByDateTime(in []appointments.Appointment) {
	sort.Slice(in, func(i, j int) bool {
		if in[i].Date != in[j].Date {
			return in[i].Date < in[j].Date
		}
		return in[i].Time < in[j].Time
	})
}
