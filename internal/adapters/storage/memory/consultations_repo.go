package memory

import (
	"context"
	"sort"
	"sync"

	"vet-clinic/internal/domain/consultations"
	"vet-clinic/internal/platform/apperr"
)

type branchKey struct {
	ownerID   string
	patientID string
}

// consultationRepo guarda cada consulta bajo su rama (owner, patient).
// ListAll recorre todas las ramas, como un collection group.
type consultationRepo struct {
	mu       sync.RWMutex
	byBranch map[branchKey]map[string]consultations.Consultation
}

func NewConsultationRepo() consultations.Repository {
	return &consultationRepo{
		byBranch: make(map[branchKey]map[string]consultations.Consultation),
	}
}

func (r *consultationRepo) Create(ctx context.Context, c consultations.Consultation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := branchKey{c.OwnerID, c.PatientID}
	branch := r.byBranch[k]
	if branch == nil {
		branch = make(map[string]consultations.Consultation)
		r.byBranch[k] = branch
	}
	if _, exists := branch[c.ID]; exists {
		return apperr.E(apperr.ErrConflict, "consultations.create", c.ID, nil)
	}
	branch[c.ID] = cloneConsultation(c)
	return nil
}

func (r *consultationRepo) Get(ctx context.Context, ownerID, patientID, id string) (consultations.Consultation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byBranch[branchKey{ownerID, patientID}][id]
	if !ok {
		return consultations.Consultation{}, apperr.NotFound("consultations.get", id)
	}
	return cloneConsultation(c), nil
}

func (r *consultationRepo) Update(ctx context.Context, c consultations.Consultation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	branch := r.byBranch[branchKey{c.OwnerID, c.PatientID}]
	if _, ok := branch[c.ID]; !ok {
		return apperr.NotFound("consultations.update", c.ID)
	}
	branch[c.ID] = cloneConsultation(c)
	return nil
}

func (r *consultationRepo) Delete(ctx context.Context, ownerID, patientID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	branch := r.byBranch[branchKey{ownerID, patientID}]
	if _, ok := branch[id]; !ok {
		return apperr.NotFound("consultations.delete", id)
	}
	delete(branch, id)
	return nil
}

func (r *consultationRepo) ListByPatient(ctx context.Context, ownerID, patientID string) ([]consultations.Consultation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	branch := r.byBranch[branchKey{ownerID, patientID}]
	out := make([]consultations.Consultation, 0, len(branch))
	for _, c := range branch {
		out = append(out, cloneConsultation(c))
	}
	sortByFechaDesc(out)
	return out, nil
}

func (r *consultationRepo) ListAll(ctx context.Context, limit int) ([]consultations.Consultation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]consultations.Consultation, 0)
	for _, branch := range r.byBranch {
		for _, c := range branch {
			out = append(out, cloneConsultation(c))
		}
	}
	sortByFechaDesc(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func sortByFechaDesc(in []consultations.Consultation) {
	sort.Slice(in, func(i, j int) bool {
		return in[i].Fecha.After(in[j].Fecha)
	})
}

func cloneConsultation(c consultations.Consultation) consultations.Consultation {
	c.ArticulosUsados = append([]consultations.Articulo(nil), c.ArticulosUsados...)
	if c.Mascota.Dueno != nil {
		d := *c.Mascota.Dueno
		c.Mascota.Dueno = &d
	}
	return c
}
