package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/cevi/onlinemat-sub000/internal/core/domain"
	"github.com/cevi/onlinemat-sub000/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Useful for development environments.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType, userID string, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("Stub event published",
		zap.String("event_type", eventType),
		zap.String("user_id", userID),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

// PublishMembershipChanged logs authz.membership.changed events.
func (p *StubPublisher) PublishMembershipChanged(_ context.Context, event domain.MembershipChangedEvent) error {
	payload := map[string]any{
		"user_id":     event.UserID,
		"tenant_id":   event.TenantID,
		"role":        event.Role,
		"banned":      event.Banned,
		"change_type": event.ChangeType,
		"changed_by":  event.ChangedBy,
		"changed_at":  event.ChangedAt,
	}
	p.logEvent(EventMembershipChanged, event.UserID, event.ChangedAt, payload)
	return nil
}

// PublishTenantCreated logs authz.tenant.created events.
func (p *StubPublisher) PublishTenantCreated(_ context.Context, event domain.TenantCreatedEvent) error {
	payload := map[string]any{
		"tenant_id":  event.TenantID,
		"name":       event.Name,
		"founder_id": event.FounderID,
		"created_at": event.CreatedAt,
	}
	p.logEvent(EventTenantCreated, event.FounderID, event.CreatedAt, payload)
	return nil
}

// PublishTenantDeleted logs authz.tenant.deleted events.
func (p *StubPublisher) PublishTenantDeleted(_ context.Context, event domain.TenantDeletedEvent) error {
	payload := map[string]any{
		"tenant_id":  event.TenantID,
		"deleted_by": event.DeletedBy,
		"deleted_at": event.DeletedAt,
	}
	p.logEvent(EventTenantDeleted, event.DeletedBy, event.DeletedAt, payload)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
