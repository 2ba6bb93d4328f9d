package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap/zaptest"

	"github.com/cevi/onlinemat-sub000/internal/core/domain"
)

type stubInvalidator struct {
	calls []string
	err   error
}

func (s *stubInvalidator) Invalidate(_ context.Context, userID string) error {
	s.calls = append(s.calls, userID)
	return s.err
}

func TestMembershipConsumerHandleEvent(t *testing.T) {
	inv := &stubInvalidator{}
	consumer := NewMembershipConsumer(inv, zaptest.NewLogger(t))

	event := domain.MembershipChangedEvent{
		UserID:     "user-123",
		TenantID:   "tenant-1",
		Role:       domain.RoleMember,
		ChangeType: domain.MembershipChangeRoleSet,
		ChangedAt:  time.Now().UTC(),
	}

	if err := consumer.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent returned error: %v", err)
	}

	if len(inv.calls) != 1 {
		t.Fatalf("expected 1 invalidation, got %d", len(inv.calls))
	}
	if inv.calls[0] != "user-123" {
		t.Fatalf("unexpected user id: %s", inv.calls[0])
	}
}

func TestMembershipConsumerHandleEventMissingUser(t *testing.T) {
	inv := &stubInvalidator{}
	consumer := NewMembershipConsumer(inv, zaptest.NewLogger(t))

	if err := consumer.HandleEvent(context.Background(), domain.MembershipChangedEvent{}); err == nil {
		t.Fatal("expected error for missing user id")
	}

	if len(inv.calls) != 0 {
		t.Fatalf("expected no invalidations, got %d", len(inv.calls))
	}
}

func TestMembershipConsumerHandleMessage(t *testing.T) {
	inv := &stubInvalidator{}
	consumer := NewMembershipConsumer(inv, zaptest.NewLogger(t))

	payload, err := json.Marshal(domain.MembershipChangedEvent{
		UserID:     "user-9",
		TenantID:   "tenant-2",
		ChangeType: domain.MembershipChangeRemoved,
	})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}

	envelope, err := json.Marshal(map[string]any{
		"event_type": EventMembershipChanged,
		"payload":    json.RawMessage(payload),
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}

	msg := &sarama.ConsumerMessage{Value: envelope}
	if err := consumer.HandleMessage(context.Background(), msg); err != nil {
		t.Fatalf("HandleMessage returned error: %v", err)
	}

	if len(inv.calls) != 1 || inv.calls[0] != "user-9" {
		t.Fatalf("unexpected invalidations: %v", inv.calls)
	}
}

func TestMembershipConsumerIgnoresOtherEvents(t *testing.T) {
	inv := &stubInvalidator{}
	consumer := NewMembershipConsumer(inv, zaptest.NewLogger(t))

	envelope, err := json.Marshal(map[string]any{
		"event_type": EventTenantCreated,
		"payload":    map[string]any{"tenant_id": "tenant-3"},
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}

	msg := &sarama.ConsumerMessage{Value: envelope}
	if err := consumer.HandleMessage(context.Background(), msg); err != nil {
		t.Fatalf("HandleMessage returned error: %v", err)
	}

	if len(inv.calls) != 0 {
		t.Fatalf("expected no invalidations, got %d", len(inv.calls))
	}
}
