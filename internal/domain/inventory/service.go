package inventory

import (
	"context"
	"errors"
	"strings"
	"time"

	"vet-clinic/internal/platform/apperr"
	"vet-clinic/internal/platform/validate"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput  = apperr.E(apperr.ErrValidation, "inventory", "", errors.New("invalid input"))
	ErrInvalidAmount = apperr.E(apperr.ErrValidation, "inventory.decrement", "", errors.New("amount must be > 0"))
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

type CreateInput struct {
	Name        string  `json:"name" validate:"required"`
	Category    string  `json:"category"`
	Quantity    int     `json:"quantity" validate:"gte=0"`
	MinQuantity int     `json:"minQuantity" validate:"gte=0"`
	Price       float64 `json:"price" validate:"gte=0"`
	Unit        string  `json:"unit"`
	Supplier    string  `json:"supplier"`
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Item, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validate.Struct("inventory.create", in); err != nil {
		return Item{}, err
	}

	now := s.now()
	it := Item{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Category:    strings.TrimSpace(in.Category),
		Quantity:    in.Quantity,
		MinQuantity: in.MinQuantity,
		Price:       in.Price,
		Unit:        strings.TrimSpace(in.Unit),
		Supplier:    strings.TrimSpace(in.Supplier),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, it); err != nil {
		return Item{}, err
	}
	return it, nil
}

func (s *Service) Get(ctx context.Context, id string) (Item, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Item{}, ErrInvalidInput
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Item, error) {
	return s.repo.List(ctx, filter)
}

type UpdateInput struct {
	Name        *string  `json:"name"`
	Category    *string  `json:"category"`
	Quantity    *int     `json:"quantity"`
	MinQuantity *int     `json:"minQuantity"`
	Price       *float64 `json:"price"`
	Unit        *string  `json:"unit"`
	Supplier    *string  `json:"supplier"`
}

// Update es la edición manual. Last-write-wins: puede pisar un decremento
// concurrente del workflow (limitación conocida).
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Item, error) {
	it, err := s.Get(ctx, id)
	if err != nil {
		return Item{}, err
	}

	if in.Name != nil {
		it.Name = strings.TrimSpace(*in.Name)
	}
	if in.Category != nil {
		it.Category = strings.TrimSpace(*in.Category)
	}
	if in.Quantity != nil {
		it.Quantity = *in.Quantity
	}
	if in.MinQuantity != nil {
		it.MinQuantity = *in.MinQuantity
	}
	if in.Price != nil {
		it.Price = *in.Price
	}
	if in.Unit != nil {
		it.Unit = strings.TrimSpace(*in.Unit)
	}
	if in.Supplier != nil {
		it.Supplier = strings.TrimSpace(*in.Supplier)
	}

	check := CreateInput{Name: it.Name, Quantity: it.Quantity, MinQuantity: it.MinQuantity, Price: it.Price}
	if err := validate.Struct("inventory.update", check); err != nil {
		return Item{}, err
	}

	it.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, it); err != nil {
		return Item{}, err
	}
	return it, nil
}

// Adjust suma delta (positivo o negativo) al stock. Igual que Update, LWW.
func (s *Service) Adjust(ctx context.Context, id string, delta int) (Item, error) {
	if delta == 0 {
		return Item{}, apperr.Validation("inventory.adjust", "delta must not be 0")
	}
	it, err := s.Get(ctx, id)
	if err != nil {
		return Item{}, err
	}
	if it.Quantity+delta < 0 {
		return Item{}, apperr.E(apperr.ErrInsufficientStock, "inventory.adjust", it.ID, nil)
	}

	it.Quantity += delta
	it.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, it); err != nil {
		return Item{}, err
	}
	return it, nil
}

// Decrement consume stock con escritura condicional en el repositorio.
func (s *Service) Decrement(ctx context.Context, id string, amount int) (int, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	if strings.TrimSpace(id) == "" {
		return 0, ErrInvalidInput
	}
	return s.repo.Decrement(ctx, id, amount)
}

func (s *Service) Remove(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrInvalidInput
	}
	return s.repo.Delete(ctx, id)
}
