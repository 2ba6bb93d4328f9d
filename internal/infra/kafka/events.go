package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cevi/onlinemat-sub000/internal/core/domain"
	"github.com/cevi/onlinemat-sub000/internal/core/port"
	"github.com/cevi/onlinemat-sub000/internal/infra/config"
)

const schemaVersion = "1.0"

// Event types published by this service.
const (
	EventMembershipChanged = "membership.changed"
	EventTenantCreated     = "tenant.created"
	EventTenantDeleted     = "tenant.deleted"
)

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type envelopeMetadata map[string]string

type eventEnvelope struct {
	EventID   string           `json:"event_id"`
	EventType string           `json:"event_type"`
	UserID    string           `json:"user_id,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Version   string           `json:"version"`
	Payload   any              `json:"payload"`
	Metadata  envelopeMetadata `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType, userID string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	id := eventID
	if id == "" {
		id = uuid.NewString()
	}

	metadata := envelopeMetadata{
		"service":     p.appCfg.Name,
		"environment": p.appCfg.Env,
	}

	envelope := eventEnvelope{
		EventID:   id,
		EventType: eventType,
		UserID:    userID,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata:  metadata,
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(bytes),
	}
	if userID != "" {
		// Key by user so membership changes for one user stay ordered.
		message.Key = sarama.StringEncoder(userID)
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishMembershipChanged publishes authz.membership.changed events.
func (p *EventPublisher) PublishMembershipChanged(ctx context.Context, event domain.MembershipChangedEvent) error {
	payload := struct {
		UserID     string    `json:"user_id"`
		TenantID   string    `json:"tenant_id"`
		Role       string    `json:"role"`
		Banned     bool      `json:"banned"`
		ChangeType string    `json:"change_type"`
		ChangedBy  string    `json:"changed_by"`
		ChangedAt  time.Time `json:"changed_at"`
	}{
		UserID:     event.UserID,
		TenantID:   event.TenantID,
		Role:       string(event.Role),
		Banned:     event.Banned,
		ChangeType: event.ChangeType,
		ChangedBy:  event.ChangedBy,
		ChangedAt:  event.ChangedAt.UTC(),
	}

	return p.publish(ctx, event.EventID, EventMembershipChanged, event.UserID, event.ChangedAt, payload)
}

// PublishTenantCreated publishes authz.tenant.created events.
func (p *EventPublisher) PublishTenantCreated(ctx context.Context, event domain.TenantCreatedEvent) error {
	payload := struct {
		TenantID  string    `json:"tenant_id"`
		Name      string    `json:"name"`
		FounderID string    `json:"founder_id"`
		CreatedAt time.Time `json:"created_at"`
	}{
		TenantID:  event.TenantID,
		Name:      event.Name,
		FounderID: event.FounderID,
		CreatedAt: event.CreatedAt.UTC(),
	}

	return p.publish(ctx, event.EventID, EventTenantCreated, event.FounderID, event.CreatedAt, payload)
}

// PublishTenantDeleted publishes authz.tenant.deleted events.
func (p *EventPublisher) PublishTenantDeleted(ctx context.Context, event domain.TenantDeletedEvent) error {
	payload := struct {
		TenantID  string    `json:"tenant_id"`
		DeletedBy string    `json:"deleted_by"`
		DeletedAt time.Time `json:"deleted_at"`
	}{
		TenantID:  event.TenantID,
		DeletedBy: event.DeletedBy,
		DeletedAt: event.DeletedAt.UTC(),
	}

	return p.publish(ctx, event.EventID, EventTenantDeleted, event.DeletedBy, event.DeletedAt, payload)
}

var _ port.EventPublisher = (*EventPublisher)(nil)
