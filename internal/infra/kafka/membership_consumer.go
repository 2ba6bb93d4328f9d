package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/cevi/onlinemat-sub000/internal/core/domain"
)

// ProfileInvalidator drops cached profiles and compiled rule sets so the next
// authorization decision observes the new memberships.
type ProfileInvalidator interface {
	Invalidate(ctx context.Context, userID string) error
}

// MembershipConsumer invalidates local authorization state when membership
// events are observed on the bus.
type MembershipConsumer struct {
	invalidator ProfileInvalidator
	logger      *zap.Logger
}

// NewMembershipConsumer constructs a consumer that reacts to membership changes.
func NewMembershipConsumer(invalidator ProfileInvalidator, logger *zap.Logger) *MembershipConsumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MembershipConsumer{invalidator: invalidator, logger: logger}
}

// HandleMessage decodes a Kafka message and invalidates the affected user.
func (c *MembershipConsumer) HandleMessage(ctx context.Context, msg *sarama.ConsumerMessage) error {
	if msg == nil {
		return fmt.Errorf("message is nil")
	}

	var envelope struct {
		EventType string          `json:"event_type"`
		Payload   json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(msg.Value, &envelope); err != nil {
		return fmt.Errorf("decode event envelope: %w", err)
	}

	if envelope.EventType != EventMembershipChanged {
		c.logger.Debug("ignoring event", zap.String("event_type", envelope.EventType))
		return nil
	}

	var event domain.MembershipChangedEvent
	if err := json.Unmarshal(envelope.Payload, &event); err != nil {
		return fmt.Errorf("decode membership event: %w", err)
	}

	return c.HandleEvent(ctx, event)
}

// HandleEvent drops the cached profile for the user named in the event.
func (c *MembershipConsumer) HandleEvent(ctx context.Context, event domain.MembershipChangedEvent) error {
	if c.invalidator == nil {
		return nil
	}
	if event.UserID == "" {
		return fmt.Errorf("membership event missing user id")
	}

	if err := c.invalidator.Invalidate(ctx, event.UserID); err != nil {
		c.logger.Warn("failed to invalidate profile",
			zap.String("user_id", event.UserID),
			zap.String("tenant_id", event.TenantID),
			zap.Error(err),
		)
		return fmt.Errorf("invalidate profile: %w", err)
	}

	c.logger.Info("profile invalidated",
		zap.String("user_id", event.UserID),
		zap.String("tenant_id", event.TenantID),
		zap.String("change_type", event.ChangeType),
	)

	return nil
}
