package users

import (
	"context"

	"vet-clinic/internal/domain/permissions"
)

type Repository interface {
	Create(ctx context.Context, u User) error
	Update(ctx context.Context, u User) error
	GetByUID(ctx context.Context, uid string) (User, error)
	List(ctx context.Context) ([]User, error)
	CountByRole(ctx context.Context, role permissions.Role) (int, error)
}
