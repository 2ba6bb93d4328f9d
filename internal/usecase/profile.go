package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cevi/onlinemat-sub000/internal/core/domain"
	"github.com/cevi/onlinemat-sub000/internal/core/port"
	"github.com/cevi/onlinemat-sub000/internal/repository"
)

const defaultProfileTTL = 5 * time.Minute

// ErrUserNotFound is returned when a profile is requested for an unknown user.
var ErrUserNotFound = errors.New("user not found")

// ProfileService assembles user profile snapshots from the account and
// membership stores, with an optional cache in front.
type ProfileService struct {
	users       port.UserRepository
	memberships port.MembershipRepository
	cache       port.ProfileCache
	cacheTTL    time.Duration
	logger      *zap.Logger
}

// NewProfileService constructs a ProfileService.
func NewProfileService(users port.UserRepository, memberships port.MembershipRepository, logger *zap.Logger) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{
		users:       users,
		memberships: memberships,
		cacheTTL:    defaultProfileTTL,
		logger:      logger,
	}
}

// WithCache attaches a profile cache with the given TTL.
func (s *ProfileService) WithCache(cache port.ProfileCache, ttl time.Duration) *ProfileService {
	s.cache = cache
	if ttl > 0 {
		s.cacheTTL = ttl
	}
	return s
}

// Load returns the current profile snapshot for the user. Cache failures are
// logged and fall through to the durable stores; a decision is never made
// less safe by a cache outage, only slower.
func (s *ProfileService) Load(ctx context.Context, userID string) (domain.UserProfile, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.UserProfile{}, fmt.Errorf("user id is required")
	}

	if s.cache != nil {
		cached, err := s.cache.GetProfile(ctx, userID)
		if err == nil && cached != nil {
			return *cached, nil
		}
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("profile cache read failed", zap.String("user_id", userID), zap.Error(err))
		}
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.UserProfile{}, ErrUserNotFound
		}
		return domain.UserProfile{}, fmt.Errorf("get user: %w", err)
	}

	profile := domain.UserProfile{
		ID:          user.ID,
		GlobalStaff: user.GlobalStaff,
	}

	roles, err := s.memberships.RolesByUser(ctx, userID)
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("list tenant roles: %w", err)
	}
	profile.TenantRoles = roles

	if s.cache != nil {
		if err := s.cache.SetProfile(ctx, profile, s.cacheTTL); err != nil {
			s.logger.Warn("profile cache write failed", zap.String("user_id", userID), zap.Error(err))
		}
	}

	return profile, nil
}

// Invalidate evicts the cached snapshot so the next Load hits the durable
// stores.
func (s *ProfileService) Invalidate(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("user id is required")
	}

	if s.cache == nil {
		return nil
	}

	if err := s.cache.DeleteProfile(ctx, userID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("evict profile: %w", err)
	}
	return nil
}
