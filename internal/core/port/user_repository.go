package port

import (
	"context"

	"github.com/cevi/onlinemat-sub000/internal/core/domain"
)

// UserRepository exposes persistence behavior for user accounts.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	SetGlobalStaff(ctx context.Context, id string, staff bool) error
	List(ctx context.Context, limit, offset int) ([]domain.User, error)
}
