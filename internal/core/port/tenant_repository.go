package port

import (
	"context"

	"github.com/cevi/onlinemat-sub000/internal/core/domain"
)

// TenantRepository exposes persistence behavior for tenants.
type TenantRepository interface {
	Create(ctx context.Context, tenant domain.Tenant) error
	GetByID(ctx context.Context, id string) (*domain.Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error)
	List(ctx context.Context) ([]domain.Tenant, error)
	Update(ctx context.Context, tenant domain.Tenant) error
	Delete(ctx context.Context, id string) error
}
