package memory

import (
	"context"
	"sort"
	"sync"

	"vet-clinic/internal/domain/activity"
	"vet-clinic/internal/platform/apperr"
)

type activityRepo struct {
	mu   sync.RWMutex
	byID map[string]activity.Entry
}

func NewActivityRepo() activity.Repository {
	return &activityRepo{
		byID: make(map[string]activity.Entry),
	}
}

func (r *activityRepo) Append(ctx context.Context, e activity.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[e.ID]; exists {
		return apperr.E(apperr.ErrConflict, "activity.append", e.ID, nil)
	}
	r.byID[e.ID] = e
	return nil
}

func (r *activityRepo) ListByPatient(ctx context.Context, ownerID, patientID string, filter activity.ListFilter) ([]activity.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]activity.Entry, 0)
	for _, e := range r.byID {
		if e.OwnerID != ownerID || e.PatientID != patientID {
			continue
		}
		if len(filter.Types) > 0 && !hasType(filter.Types, e.Type) {
			continue
		}
		out = append(out, e)
	}

	// más reciente primero
	sort.Slice(out, func(i, j int) bool {
		return out[i].OccurredAt.After(out[j].OccurredAt)
	})

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *activityRepo) DeleteByPatient(ctx context.Context, ownerID, patientID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, e := range r.byID {
		if e.OwnerID == ownerID && e.PatientID == patientID {
			delete(r.byID, id)
		}
	}
	return nil
}

func hasType(types []activity.Type, t activity.Type) bool {
	for _, x := range types {
		if x == t {
			return true
		}
	}
	return false
}
