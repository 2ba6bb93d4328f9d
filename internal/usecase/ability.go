package usecase

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/cevi/onlinemat-sub000/internal/core/domain"
)

// AbilityStore holds the live rule set for one user profile and answers
// authorization queries against it. The rule set is only ever swapped
// wholesale by Rebuild; the read-write lock makes the swap atomic with
// respect to concurrent Can calls.
type AbilityStore struct {
	mu      sync.RWMutex
	rules   *domain.RuleSet
	profile domain.UserProfile
}

// NewAbilityStore builds a store with an empty rule set: every query is
// denied until the first Rebuild.
func NewAbilityStore() *AbilityStore {
	return &AbilityStore{rules: domain.NewRuleSet(nil)}
}

// Rebuild derives the rule set for the profile and replaces the active rules
// in full. It must be called on every profile change; the previous rules are
// discarded entirely so no stale grant survives a demotion.
func (s *AbilityStore) Rebuild(profile domain.UserProfile) {
	rules := BuildRules(profile)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = profile
	s.rules = domain.NewRuleSet(rules)
}

// Can reports whether the profile the store was last rebuilt for may perform
// the action on the subject. It never fails: unknown kinds and malformed
// subjects are denied.
func (s *AbilityStore) Can(action domain.Action, subject domain.Subject) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rules.Matches(action, subject)
}

// Rules returns a copy of the active rule list.
func (s *AbilityStore) Rules() []domain.Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rules.Rules()
}

// Profile returns the profile snapshot the current rules were built from.
func (s *AbilityStore) Profile() domain.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// Authorizer is the decision surface consumed by the services and transport
// layers.
type Authorizer interface {
	Can(ctx context.Context, userID string, action domain.Action, subject domain.Subject) (bool, error)
}

// Invalidator drops a user's cached profile and compiled rules so the next
// decision is rebuilt from durable state. Services that change a user's
// tenant-role map call it right after the mutation; the Kafka consumer covers
// other replicas.
type Invalidator interface {
	Invalidate(ctx context.Context, userID string) error
}

// AbilityService owns one AbilityStore per active user and keeps each store
// in sync with the user's profile. Profiles are loaded through the
// ProfileService on every decision (the cache keeps this cheap); a store is
// rebuilt whenever the loaded snapshot differs from the one its rules were
// built from.
type AbilityService struct {
	profiles *ProfileService
	logger   *zap.Logger

	mu     sync.Mutex
	stores map[string]*AbilityStore
}

// NewAbilityService constructs an AbilityService.
func NewAbilityService(profiles *ProfileService, logger *zap.Logger) *AbilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AbilityService{
		profiles: profiles,
		logger:   logger,
		stores:   make(map[string]*AbilityStore),
	}
}

// StoreFor returns the ability store for the user, rebuilding it first if the
// current profile snapshot no longer matches the rules.
func (s *AbilityService) StoreFor(ctx context.Context, userID string) (*AbilityStore, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	profile, err := s.profiles.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	s.mu.Lock()
	store, ok := s.stores[userID]
	if !ok {
		store = NewAbilityStore()
		s.stores[userID] = store
	}
	s.mu.Unlock()

	if !store.Profile().Equal(profile) {
		store.Rebuild(profile)
		s.logger.Debug("rebuilt rule set",
			zap.String("user_id", userID),
			zap.Int("tenants", len(profile.TenantRoles)),
			zap.Bool("global_staff", profile.GlobalStaff),
		)
	}

	return store, nil
}

// Can loads the user's current rules and evaluates the decision.
func (s *AbilityService) Can(ctx context.Context, userID string, action domain.Action, subject domain.Subject) (bool, error) {
	store, err := s.StoreFor(ctx, userID)
	if err != nil {
		return false, err
	}
	return store.Can(action, subject), nil
}

// Invalidate drops the user's store and cached profile. The next decision
// rebuilds from the durable membership store.
func (s *AbilityService) Invalidate(ctx context.Context, userID string) error {
	s.mu.Lock()
	delete(s.stores, userID)
	s.mu.Unlock()

	if err := s.profiles.Invalidate(ctx, userID); err != nil {
		return fmt.Errorf("invalidate profile: %w", err)
	}
	return nil
}
