package inventory

import "context"

type ListFilter struct {
	LowOnly bool
}

type Repository interface {
	Create(ctx context.Context, it Item) error
	Get(ctx context.Context, id string) (Item, error)
	// Update reemplaza el registro completo (last-write-wins).
	Update(ctx context.Context, it Item) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]Item, error)

	// Decrement resta amount solo si amount <= quantity al momento de escribir
	// (escritura condicional). Si no alcanza devuelve apperr.ErrInsufficientStock.
	Decrement(ctx context.Context, id string, amount int) (int, error)
}
