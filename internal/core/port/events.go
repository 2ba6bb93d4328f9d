package port

import (
	"context"

	"github.com/cevi/onlinemat-sub000/internal/core/domain"
)

// EventPublisher publishes domain events to the message bus.
type EventPublisher interface {
	PublishMembershipChanged(ctx context.Context, event domain.MembershipChangedEvent) error
	PublishTenantCreated(ctx context.Context, event domain.TenantCreatedEvent) error
	PublishTenantDeleted(ctx context.Context, event domain.TenantDeletedEvent) error
}
