package usecase

import (
	"context"
	"time"

	"github.com/cevi/onlinemat-sub000/internal/core/domain"
	"github.com/cevi/onlinemat-sub000/internal/repository"
)

// Mock repositories shared across the usecase tests.

type userRepoMock struct {
	users     map[string]domain.User
	getErr    error
	createErr error
}

func (m *userRepoMock) Create(_ context.Context, user domain.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	if m.users == nil {
		m.users = make(map[string]domain.User)
	}
	m.users[user.ID] = user
	return nil
}

func (m *userRepoMock) GetByID(_ context.Context, id string) (*domain.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if user, ok := m.users[id]; ok {
		return &user, nil
	}
	return nil, repository.ErrNotFound
}

func (m *userRepoMock) SetGlobalStaff(_ context.Context, id string, staff bool) error {
	user, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.GlobalStaff = staff
	m.users[id] = user
	return nil
}

func (m *userRepoMock) List(_ context.Context, _, _ int) ([]domain.User, error) {
	users := make([]domain.User, 0, len(m.users))
	for _, user := range m.users {
		users = append(users, user)
	}
	return users, nil
}

type membershipRepoMock struct {
	memberships map[string]domain.Membership
	rolesByUser map[string]map[string]domain.TenantRole
	createErr   error
	updateErr   error
	deleteErr   error
}

func (m *membershipRepoMock) Create(_ context.Context, membership domain.Membership) error {
	if m.createErr != nil {
		return m.createErr
	}
	if m.memberships == nil {
		m.memberships = make(map[string]domain.Membership)
	}
	m.memberships[membership.ID] = membership
	return nil
}

func (m *membershipRepoMock) GetByID(_ context.Context, id string) (*domain.Membership, error) {
	if membership, ok := m.memberships[id]; ok {
		return &membership, nil
	}
	return nil, repository.ErrNotFound
}

func (m *membershipRepoMock) GetByUserAndTenant(_ context.Context, userID, tenantID string) (*domain.Membership, error) {
	for _, membership := range m.memberships {
		if membership.UserID == userID && membership.TenantID == tenantID {
			return &membership, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *membershipRepoMock) ListByTenant(_ context.Context, tenantID string) ([]domain.Membership, error) {
	result := make([]domain.Membership, 0)
	for _, membership := range m.memberships {
		if membership.TenantID == tenantID {
			result = append(result, membership)
		}
	}
	return result, nil
}

func (m *membershipRepoMock) ListByUser(_ context.Context, userID string) ([]domain.Membership, error) {
	result := make([]domain.Membership, 0)
	for _, membership := range m.memberships {
		if membership.UserID == userID {
			result = append(result, membership)
		}
	}
	return result, nil
}

func (m *membershipRepoMock) RolesByUser(_ context.Context, userID string) (map[string]domain.TenantRole, error) {
	if m.rolesByUser != nil {
		roles := make(map[string]domain.TenantRole, len(m.rolesByUser[userID]))
		for tenantID, role := range m.rolesByUser[userID] {
			roles[tenantID] = role
		}
		return roles, nil
	}
	roles := make(map[string]domain.TenantRole)
	for _, membership := range m.memberships {
		if membership.UserID == userID {
			roles[membership.TenantID] = membership.Role
		}
	}
	return roles, nil
}

func (m *membershipRepoMock) Update(_ context.Context, membership domain.Membership) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.memberships[membership.ID]; !ok {
		return repository.ErrNotFound
	}
	m.memberships[membership.ID] = membership
	return nil
}

func (m *membershipRepoMock) Delete(_ context.Context, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.memberships[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.memberships, id)
	return nil
}

func (m *membershipRepoMock) DeleteByTenant(_ context.Context, tenantID string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	for id, membership := range m.memberships {
		if membership.TenantID == tenantID {
			delete(m.memberships, id)
		}
	}
	return nil
}

type tenantRepoMock struct {
	tenants   map[string]domain.Tenant
	createErr error
	updateErr error
	deleteErr error
}

func (m *tenantRepoMock) Create(_ context.Context, tenant domain.Tenant) error {
	if m.createErr != nil {
		return m.createErr
	}
	if m.tenants == nil {
		m.tenants = make(map[string]domain.Tenant)
	}
	m.tenants[tenant.ID] = tenant
	return nil
}

func (m *tenantRepoMock) GetByID(_ context.Context, id string) (*domain.Tenant, error) {
	if tenant, ok := m.tenants[id]; ok {
		return &tenant, nil
	}
	return nil, repository.ErrNotFound
}

func (m *tenantRepoMock) GetBySlug(_ context.Context, slug string) (*domain.Tenant, error) {
	for _, tenant := range m.tenants {
		if tenant.Slug == slug {
			return &tenant, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *tenantRepoMock) List(_ context.Context) ([]domain.Tenant, error) {
	tenants := make([]domain.Tenant, 0, len(m.tenants))
	for _, tenant := range m.tenants {
		tenants = append(tenants, tenant)
	}
	return tenants, nil
}

func (m *tenantRepoMock) Update(_ context.Context, tenant domain.Tenant) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.tenants[tenant.ID]; !ok {
		return repository.ErrNotFound
	}
	m.tenants[tenant.ID] = tenant
	return nil
}

func (m *tenantRepoMock) Delete(_ context.Context, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.tenants[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.tenants, id)
	return nil
}

// staticAuthorizer answers decisions from a fixed profile, bypassing the
// repository round trip.
type staticAuthorizer struct {
	store *AbilityStore
	err   error
}

func newStaticAuthorizer(profile domain.UserProfile) *staticAuthorizer {
	store := NewAbilityStore()
	store.Rebuild(profile)
	return &staticAuthorizer{store: store}
}

func (a *staticAuthorizer) Can(_ context.Context, _ string, action domain.Action, subject domain.Subject) (bool, error) {
	if a.err != nil {
		return false, a.err
	}
	return a.store.Can(action, subject), nil
}

type invalidatorMock struct {
	invalidated []string
	err         error
}

func (m *invalidatorMock) Invalidate(_ context.Context, userID string) error {
	if m.err != nil {
		return m.err
	}
	m.invalidated = append(m.invalidated, userID)
	return nil
}

type publisherMock struct {
	membershipEvents []domain.MembershipChangedEvent
	tenantCreated    []domain.TenantCreatedEvent
	tenantDeleted    []domain.TenantDeletedEvent
	err              error
}

func (m *publisherMock) PublishMembershipChanged(_ context.Context, event domain.MembershipChangedEvent) error {
	if m.err != nil {
		return m.err
	}
	m.membershipEvents = append(m.membershipEvents, event)
	return nil
}

func (m *publisherMock) PublishTenantCreated(_ context.Context, event domain.TenantCreatedEvent) error {
	if m.err != nil {
		return m.err
	}
	m.tenantCreated = append(m.tenantCreated, event)
	return nil
}

func (m *publisherMock) PublishTenantDeleted(_ context.Context, event domain.TenantDeletedEvent) error {
	if m.err != nil {
		return m.err
	}
	m.tenantDeleted = append(m.tenantDeleted, event)
	return nil
}

type profileCacheMock struct {
	profiles map[string]domain.UserProfile
	getErr   error
	setErr   error
	gets     int
	sets     int
	deletes  int
}

func (m *profileCacheMock) GetProfile(_ context.Context, userID string) (*domain.UserProfile, error) {
	m.gets++
	if m.getErr != nil {
		return nil, m.getErr
	}
	if profile, ok := m.profiles[userID]; ok {
		return &profile, nil
	}
	return nil, repository.ErrNotFound
}

func (m *profileCacheMock) SetProfile(_ context.Context, profile domain.UserProfile, _ time.Duration) error {
	m.sets++
	if m.setErr != nil {
		return m.setErr
	}
	if m.profiles == nil {
		m.profiles = make(map[string]domain.UserProfile)
	}
	m.profiles[profile.ID] = profile
	return nil
}

func (m *profileCacheMock) DeleteProfile(_ context.Context, userID string) error {
	m.deletes++
	delete(m.profiles, userID)
	return nil
}
