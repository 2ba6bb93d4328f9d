package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cevi/onlinemat-sub000/internal/core/domain"
	"github.com/cevi/onlinemat-sub000/internal/core/port"
	"github.com/cevi/onlinemat-sub000/internal/repository"
)

var (
	// ErrTenantNotFound is returned when the tenant does not exist.
	ErrTenantNotFound = errors.New("tenant not found")
	// ErrTenantExists indicates a tenant with the provided slug already exists.
	ErrTenantExists = errors.New("tenant already exists")
)

// CreateTenantInput captures the payload for founding a tenant.
type CreateTenantInput struct {
	Name        string
	Slug        string
	Description *string
}

// UpdateTenantInput captures the payload for updating a tenant.
type UpdateTenantInput struct {
	ID          string
	Name        *string
	Description *string
}

// TenantService manages tenants. Founding a tenant is open to every
// authenticated user; everything after that is gated per tenant.
type TenantService struct {
	tenants     port.TenantRepository
	memberships port.MembershipRepository
	authorizer  Authorizer
	events      port.EventPublisher
	invalidator Invalidator
	logger      *zap.Logger
	now         func() time.Time
}

// NewTenantService constructs a TenantService.
func NewTenantService(tenants port.TenantRepository, memberships port.MembershipRepository, authorizer Authorizer, events port.EventPublisher, logger *zap.Logger) *TenantService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TenantService{
		tenants:     tenants,
		memberships: memberships,
		authorizer:  authorizer,
		events:      events,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithInvalidator makes the service drop cached profiles of affected users
// right after a mutation, instead of waiting for the membership-changed
// consumer to catch up.
func (s *TenantService) WithInvalidator(invalidator Invalidator) *TenantService {
	s.invalidator = invalidator
	return s
}

// Create founds a new tenant and makes the actor its first admin.
func (s *TenantService) Create(ctx context.Context, actorID string, input CreateTenantInput) (*domain.Tenant, error) {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return nil, fmt.Errorf("actor id is required")
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("tenant name is required")
	}

	slug := strings.ToLower(strings.TrimSpace(input.Slug))
	if slug == "" {
		return nil, fmt.Errorf("tenant slug is required")
	}

	allowed, err := s.authorizer.Can(ctx, actorID, domain.ActionCreate, domain.ClassOf(domain.KindTenant))
	if err != nil {
		return nil, fmt.Errorf("authorize: %w", err)
	}
	if !allowed {
		return nil, ErrPermissionDenied
	}

	if existing, err := s.tenants.GetBySlug(ctx, slug); err == nil && existing != nil {
		return nil, ErrTenantExists
	} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lookup tenant by slug: %w", err)
	}

	now := s.now()
	tenant := domain.Tenant{
		ID:        uuid.NewString(),
		Name:      name,
		Slug:      slug,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if input.Description != nil {
		trimmed := strings.TrimSpace(*input.Description)
		if trimmed != "" {
			tenant.Description = &trimmed
		}
	}

	if err := s.tenants.Create(ctx, tenant); err != nil {
		return nil, fmt.Errorf("create tenant: %w", err)
	}

	founder := domain.Membership{
		ID:        uuid.NewString(),
		UserID:    actorID,
		TenantID:  tenant.ID,
		Role:      domain.RoleAdmin,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.memberships.Create(ctx, founder); err != nil {
		return nil, fmt.Errorf("create founder membership: %w", err)
	}

	// The founder's profile gained an admin role; anything cached for them
	// is stale from this point on.
	s.publishMembershipChange(ctx, founder, domain.MembershipChangeApproved, actorID)
	s.invalidateProfile(ctx, actorID)

	if s.events != nil {
		event := domain.TenantCreatedEvent{
			EventID:   uuid.NewString(),
			TenantID:  tenant.ID,
			Name:      tenant.Name,
			FounderID: actorID,
			CreatedAt: now,
		}
		if err := s.events.PublishTenantCreated(ctx, event); err != nil {
			s.logger.Warn("failed to publish tenant created",
				zap.String("tenant_id", tenant.ID),
				zap.Error(err),
			)
		}
	}

	return &tenant, nil
}

// Get fetches a tenant; reading requires a read grant on that tenant.
func (s *TenantService) Get(ctx context.Context, actorID, tenantID string) (*domain.Tenant, error) {
	actorID = strings.TrimSpace(actorID)
	tenantID = strings.TrimSpace(tenantID)
	if actorID == "" {
		return nil, fmt.Errorf("actor id is required")
	}
	if tenantID == "" {
		return nil, fmt.Errorf("tenant id is required")
	}

	allowed, err := s.authorizer.Can(ctx, actorID, domain.ActionRead, domain.TenantSubject(tenantID))
	if err != nil {
		return nil, fmt.Errorf("authorize: %w", err)
	}
	if !allowed {
		return nil, ErrPermissionDenied
	}

	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("get tenant: %w", err)
	}
	return tenant, nil
}

// Update modifies tenant fields; requires an update grant on the tenant.
func (s *TenantService) Update(ctx context.Context, actorID string, input UpdateTenantInput) (*domain.Tenant, error) {
	actorID = strings.TrimSpace(actorID)
	tenantID := strings.TrimSpace(input.ID)
	if actorID == "" {
		return nil, fmt.Errorf("actor id is required")
	}
	if tenantID == "" {
		return nil, fmt.Errorf("tenant id is required")
	}

	allowed, err := s.authorizer.Can(ctx, actorID, domain.ActionUpdate, domain.TenantSubject(tenantID))
	if err != nil {
		return nil, fmt.Errorf("authorize: %w", err)
	}
	if !allowed {
		return nil, ErrPermissionDenied
	}

	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("get tenant: %w", err)
	}

	if input.Name != nil {
		trimmed := strings.TrimSpace(*input.Name)
		if trimmed == "" {
			return nil, fmt.Errorf("tenant name cannot be empty")
		}
		tenant.Name = trimmed
	}
	if input.Description != nil {
		trimmed := strings.TrimSpace(*input.Description)
		if trimmed == "" {
			tenant.Description = nil
		} else {
			tenant.Description = &trimmed
		}
	}
	tenant.UpdatedAt = s.now()

	if err := s.tenants.Update(ctx, *tenant); err != nil {
		return nil, fmt.Errorf("update tenant: %w", err)
	}

	return tenant, nil
}

// Delete removes a tenant; requires a delete grant on the tenant.
func (s *TenantService) Delete(ctx context.Context, actorID, tenantID string) error {
	actorID = strings.TrimSpace(actorID)
	tenantID = strings.TrimSpace(tenantID)
	if actorID == "" {
		return fmt.Errorf("actor id is required")
	}
	if tenantID == "" {
		return fmt.Errorf("tenant id is required")
	}

	allowed, err := s.authorizer.Can(ctx, actorID, domain.ActionDelete, domain.TenantSubject(tenantID))
	if err != nil {
		return fmt.Errorf("authorize: %w", err)
	}
	if !allowed {
		return ErrPermissionDenied
	}

	members, err := s.memberships.ListByTenant(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("list memberships: %w", err)
	}

	if err := s.tenants.Delete(ctx, tenantID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTenantNotFound
		}
		return fmt.Errorf("delete tenant: %w", err)
	}

	// Membership rows of a dead tenant would keep granting rules that point
	// nowhere. Drop them and flush every former member's profile.
	if err := s.memberships.DeleteByTenant(ctx, tenantID); err != nil {
		return fmt.Errorf("delete memberships: %w", err)
	}
	for _, member := range members {
		s.publishMembershipChange(ctx, member, domain.MembershipChangeRemoved, actorID)
		s.invalidateProfile(ctx, member.UserID)
	}

	if s.events != nil {
		event := domain.TenantDeletedEvent{
			EventID:   uuid.NewString(),
			TenantID:  tenantID,
			DeletedBy: actorID,
			DeletedAt: s.now(),
		}
		if err := s.events.PublishTenantDeleted(ctx, event); err != nil {
			s.logger.Warn("failed to publish tenant deleted",
				zap.String("tenant_id", tenantID),
				zap.Error(err),
			)
		}
	}

	return nil
}

func (s *TenantService) publishMembershipChange(ctx context.Context, membership domain.Membership, changeType, actorID string) {
	if s.events == nil {
		return
	}

	event := domain.MembershipChangedEvent{
		EventID:    uuid.NewString(),
		UserID:     membership.UserID,
		TenantID:   membership.TenantID,
		Role:       membership.Role,
		Banned:     membership.Banned,
		ChangeType: changeType,
		ChangedBy:  actorID,
		ChangedAt:  s.now(),
	}

	if err := s.events.PublishMembershipChanged(ctx, event); err != nil {
		s.logger.Warn("failed to publish membership change",
			zap.String("membership_id", membership.ID),
			zap.String("change_type", changeType),
			zap.Error(err),
		)
	}
}

func (s *TenantService) invalidateProfile(ctx context.Context, userID string) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Invalidate(ctx, userID); err != nil {
		s.logger.Warn("failed to invalidate profile",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}
}

// List returns all tenants. The listing itself is not gated; per-tenant
// content remains behind read grants.
func (s *TenantService) List(ctx context.Context) ([]domain.Tenant, error) {
	tenants, err := s.tenants.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	return tenants, nil
}
