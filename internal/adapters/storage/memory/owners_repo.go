package memory

import (
	"context"
	"sort"
	"sync"

	"vet-clinic/internal/domain/owners"
	"vet-clinic/internal/platform/apperr"
)

// ownerRepo replica la jerarquía owners/{id}/patients/{id}: los pacientes
// solo se alcanzan a través de su dueño.
type ownerRepo struct {
	mu       sync.RWMutex
	byID     map[string]owners.Owner
	patients map[string]map[string]owners.Patient
}

func NewOwnerRepo() owners.Repository {
	return &ownerRepo{
		byID:     make(map[string]owners.Owner),
		patients: make(map[string]map[string]owners.Patient),
	}
}

func (r *ownerRepo) CreateOwner(ctx context.Context, o owners.Owner) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[o.ID]; exists {
		return apperr.E(apperr.ErrConflict, "owners.create", o.ID, nil)
	}
	r.byID[o.ID] = o
	return nil
}

func (r *ownerRepo) GetOwner(ctx context.Context, ownerID string) (owners.Owner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.byID[ownerID]
	if !ok {
		return owners.Owner{}, apperr.NotFound("owners.get", ownerID)
	}
	return o, nil
}

func (r *ownerRepo) FindOwnerByRUT(ctx context.Context, rut string) (owners.Owner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, o := range r.byID {
		if o.RUT == rut {
			return o, nil
		}
	}
	return owners.Owner{}, apperr.NotFound("owners.find_by_rut", rut)
}

func (r *ownerRepo) ListOwners(ctx context.Context) ([]owners.Owner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]owners.Owner, 0, len(r.byID))
	for _, o := range r.byID {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nombre < out[j].Nombre })
	return out, nil
}

func (r *ownerRepo) UpdateOwner(ctx context.Context, o owners.Owner) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[o.ID]; !ok {
		return apperr.NotFound("owners.update", o.ID)
	}
	r.byID[o.ID] = o
	return nil
}

// DeleteOwner no cascadea; con pacientes vivos se rechaza.
func (r *ownerRepo) DeleteOwner(ctx context.Context, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[ownerID]; !ok {
		return apperr.NotFound("owners.delete", ownerID)
	}
	if len(r.patients[ownerID]) > 0 {
		return apperr.E(apperr.ErrConflict, "owners.delete", ownerID, nil)
	}
	delete(r.byID, ownerID)
	delete(r.patients, ownerID)
	return nil
}

func (r *ownerRepo) CreatePatient(ctx context.Context, p owners.Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[p.OwnerID]; !ok {
		return apperr.NotFound("owners.create_patient", p.OwnerID)
	}
	branch := r.patients[p.OwnerID]
	if branch == nil {
		branch = make(map[string]owners.Patient)
		r.patients[p.OwnerID] = branch
	}
	if _, exists := branch[p.ID]; exists {
		return apperr.E(apperr.ErrConflict, "owners.create_patient", p.ID, nil)
	}
	branch[p.ID] = p
	return nil
}

func (r *ownerRepo) GetPatient(ctx context.Context, ownerID, patientID string) (owners.Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.patients[ownerID][patientID]
	if !ok {
		return owners.Patient{}, apperr.NotFound("owners.get_patient", ownerID+"/"+patientID)
	}
	return p, nil
}

func (r *ownerRepo) ListPatients(ctx context.Context, ownerID string) ([]owners.Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.byID[ownerID]; !ok {
		return nil, apperr.NotFound("owners.list_patients", ownerID)
	}
	out := make([]owners.Patient, 0, len(r.patients[ownerID]))
	for _, p := range r.patients[ownerID] {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nombre < out[j].Nombre })
	return out, nil
}

func (r *ownerRepo) UpdatePatient(ctx context.Context, p owners.Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.patients[p.OwnerID][p.ID]; !ok {
		return apperr.NotFound("owners.update_patient", p.OwnerID+"/"+p.ID)
	}
	r.patients[p.OwnerID][p.ID] = p
	return nil
}

func (r *ownerRepo) DeletePatient(ctx context.Context, ownerID, patientID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.patients[ownerID][patientID]; !ok {
		return apperr.NotFound("owners.delete_patient", ownerID+"/"+patientID)
	}
	delete(r.patients[ownerID], patientID)
	return nil
}
