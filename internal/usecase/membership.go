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
	// ErrPermissionDenied indicates the actor lacks a matching rule for the
	// attempted action.
	ErrPermissionDenied = errors.New("insufficient permissions")
	// ErrMembershipExists indicates the user already has a membership in the
	// tenant.
	ErrMembershipExists = errors.New("membership already exists")
	// ErrMembershipNotFound is returned when the membership does not exist.
	ErrMembershipNotFound = errors.New("membership not found")
	// ErrInvalidRole indicates a role value outside the defined set.
	ErrInvalidRole = errors.New("invalid tenant role")
)

// MembershipService mutates the durable tenant-role map. Every mutation is
// gated by the ability engine and followed by a membership-changed event so
// cached profiles are rebuilt.
type MembershipService struct {
	memberships port.MembershipRepository
	tenants     port.TenantRepository
	authorizer  Authorizer
	events      port.EventPublisher
	invalidator Invalidator
	logger      *zap.Logger
	now         func() time.Time
}

// NewMembershipService constructs a MembershipService.
func NewMembershipService(memberships port.MembershipRepository, tenants port.TenantRepository, authorizer Authorizer, events port.EventPublisher, logger *zap.Logger) *MembershipService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MembershipService{
		memberships: memberships,
		tenants:     tenants,
		authorizer:  authorizer,
		events:      events,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithInvalidator makes the service drop the affected user's cached profile
// right after a mutation, instead of waiting for the membership-changed
// consumer to catch up.
func (s *MembershipService) WithInvalidator(invalidator Invalidator) *MembershipService {
	s.invalidator = invalidator
	return s
}

// RequestJoin files a pending membership for the actor in the tenant. Any
// authenticated user may ask; approval gates everything else.
func (s *MembershipService) RequestJoin(ctx context.Context, actorID, tenantID string) (*domain.Membership, error) {
	actorID = strings.TrimSpace(actorID)
	tenantID = strings.TrimSpace(tenantID)
	if actorID == "" {
		return nil, fmt.Errorf("actor id is required")
	}
	if tenantID == "" {
		return nil, fmt.Errorf("tenant id is required")
	}

	if _, err := s.tenants.GetByID(ctx, tenantID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("get tenant: %w", err)
	}

	if existing, err := s.memberships.GetByUserAndTenant(ctx, actorID, tenantID); err == nil && existing != nil {
		return nil, ErrMembershipExists
	} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lookup membership: %w", err)
	}

	now := s.now()
	membership := domain.Membership{
		ID:        uuid.NewString(),
		UserID:    actorID,
		TenantID:  tenantID,
		Role:      domain.RolePending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.memberships.Create(ctx, membership); err != nil {
		return nil, fmt.Errorf("create membership: %w", err)
	}

	s.publishChange(ctx, membership, domain.MembershipChangeRequested, actorID)
	s.invalidateProfile(ctx, membership.UserID)

	return &membership, nil
}

// SetRole approves a pending membership or changes an existing role. The
// actor needs an update grant on memberships of the tenant.
func (s *MembershipService) SetRole(ctx context.Context, actorID, membershipID string, role domain.TenantRole) (*domain.Membership, error) {
	if !domain.KnownRole(role) {
		return nil, ErrInvalidRole
	}

	membership, err := s.gatedLookup(ctx, actorID, membershipID)
	if err != nil {
		return nil, err
	}

	changeType := domain.MembershipChangeRoleSet
	if membership.Role == domain.RolePending && role != domain.RolePending {
		changeType = domain.MembershipChangeApproved
	}

	membership.Role = role
	membership.UpdatedAt = s.now()

	if err := s.memberships.Update(ctx, *membership); err != nil {
		return nil, fmt.Errorf("update membership: %w", err)
	}

	s.publishChange(ctx, *membership, changeType, actorID)
	s.invalidateProfile(ctx, membership.UserID)

	return membership, nil
}

// SetBanned toggles the ban flag. The policy builder does not consult the
// flag; a ban is enforced here, at the membership layer.
func (s *MembershipService) SetBanned(ctx context.Context, actorID, membershipID string, banned bool) (*domain.Membership, error) {
	membership, err := s.gatedLookup(ctx, actorID, membershipID)
	if err != nil {
		return nil, err
	}

	membership.Banned = banned
	membership.UpdatedAt = s.now()

	if err := s.memberships.Update(ctx, *membership); err != nil {
		return nil, fmt.Errorf("update membership: %w", err)
	}

	changeType := domain.MembershipChangeBanned
	if !banned {
		changeType = domain.MembershipChangeUnbanned
	}
	s.publishChange(ctx, *membership, changeType, actorID)
	s.invalidateProfile(ctx, membership.UserID)

	return membership, nil
}

// Remove deletes a membership entirely.
func (s *MembershipService) Remove(ctx context.Context, actorID, membershipID string) error {
	membership, err := s.gatedLookup(ctx, actorID, membershipID)
	if err != nil {
		return err
	}

	if err := s.memberships.Delete(ctx, membership.ID); err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}

	s.publishChange(ctx, *membership, domain.MembershipChangeRemoved, actorID)
	s.invalidateProfile(ctx, membership.UserID)

	return nil
}

// ListByTenant returns a tenant's memberships. Reading the roster requires a
// read grant on the tenant itself, which a pending member does not hold.
func (s *MembershipService) ListByTenant(ctx context.Context, actorID, tenantID string) ([]domain.Membership, error) {
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

	memberships, err := s.memberships.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	return memberships, nil
}

// gatedLookup fetches the membership and checks the actor may update
// memberships of its tenant.
func (s *MembershipService) gatedLookup(ctx context.Context, actorID, membershipID string) (*domain.Membership, error) {
	actorID = strings.TrimSpace(actorID)
	membershipID = strings.TrimSpace(membershipID)
	if actorID == "" {
		return nil, fmt.Errorf("actor id is required")
	}
	if membershipID == "" {
		return nil, fmt.Errorf("membership id is required")
	}

	membership, err := s.memberships.GetByID(ctx, membershipID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMembershipNotFound
		}
		return nil, fmt.Errorf("get membership: %w", err)
	}

	allowed, err := s.authorizer.Can(ctx, actorID, domain.ActionUpdate, domain.SubjectIn(domain.KindMembership, membership.TenantID))
	if err != nil {
		return nil, fmt.Errorf("authorize: %w", err)
	}
	if !allowed {
		return nil, ErrPermissionDenied
	}

	return membership, nil
}

func (s *MembershipService) publishChange(ctx context.Context, membership domain.Membership, changeType, actorID string) {
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

func (s *MembershipService) invalidateProfile(ctx context.Context, userID string) {
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
