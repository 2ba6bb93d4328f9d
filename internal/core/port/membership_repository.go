package port

import (
	"context"

	"github.com/cevi/onlinemat-sub000/internal/core/domain"
)

// MembershipRepository is the durable source of truth for a user's
// tenant-role map.
type MembershipRepository interface {
	Create(ctx context.Context, membership domain.Membership) error
	GetByID(ctx context.Context, id string) (*domain.Membership, error)
	GetByUserAndTenant(ctx context.Context, userID, tenantID string) (*domain.Membership, error)
	ListByTenant(ctx context.Context, tenantID string) ([]domain.Membership, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Membership, error)
	// RolesByUser collapses a user's memberships into the tenant-role map
	// consumed by the policy builder.
	RolesByUser(ctx context.Context, userID string) (map[string]domain.TenantRole, error)
	Update(ctx context.Context, membership domain.Membership) error
	Delete(ctx context.Context, id string) error
	// DeleteByTenant removes every membership of a tenant; deleting a tenant
	// with no members is not an error.
	DeleteByTenant(ctx context.Context, tenantID string) error
}
