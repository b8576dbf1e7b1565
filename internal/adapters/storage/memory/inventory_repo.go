package memory

import (
	"context"
	"sort"
	"sync"

	"vet-clinic/internal/domain/inventory"
	"vet-clinic/internal/platform/apperr"
)

type inventoryRepo struct {
	mu   sync.RWMutex
	byID map[string]inventory.Item
}

func NewInventoryRepo() inventory.Repository {
	return &inventoryRepo{
		byID: make(map[string]inventory.Item),
	}
}

func (r *inventoryRepo) Create(ctx context.Context, it inventory.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[it.ID]; exists {
		return apperr.E(apperr.ErrConflict, "inventory.create", it.ID, nil)
	}
	r.byID[it.ID] = it
	return nil
}

func (r *inventoryRepo) Get(ctx context.Context, id string) (inventory.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	it, ok := r.byID[id]
	if !ok {
		return inventory.Item{}, apperr.NotFound("inventory.get", id)
	}
	return it, nil
}

func (r *inventoryRepo) Update(ctx context.Context, it inventory.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[it.ID]; !ok {
		return apperr.NotFound("inventory.update", it.ID)
	}
	r.byID[it.ID] = it
	return nil
}

func (r *inventoryRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return apperr.NotFound("inventory.delete", id)
	}
	delete(r.byID, id)
	return nil
}

func (r *inventoryRepo) List(ctx context.Context, filter inventory.ListFilter) ([]inventory.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]inventory.Item, 0, len(r.byID))
	for _, it := range r.byID {
		if filter.LowOnly && !inventory.IsLow(it) {
			continue
		}
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Decrement comprueba y resta bajo el mismo lock.
func (r *inventoryRepo) Decrement(ctx context.Context, id string, amount int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	it, ok := r.byID[id]
	if !ok {
		return 0, apperr.NotFound("inventory.decrement", id)
	}
	if it.Quantity < amount {
		return it.Quantity, apperr.E(apperr.ErrInsufficientStock, "inventory.decrement", id, nil)
	}
	it.Quantity -= amount
	r.byID[id] = it
	return it.Quantity, nil
}
