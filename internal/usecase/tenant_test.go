package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cevi/onlinemat-sub000/internal/core/domain"
)

func TestTenantCreateGrantsFounderAdmin(t *testing.T) {
	tenants := &tenantRepoMock{}
	memberships := &membershipRepoMock{}
	events := &publisherMock{}

	// Any authenticated non-staff user may found a tenant.
	authorizer := newStaticAuthorizer(domain.UserProfile{ID: "u1"})
	svc := NewTenantService(tenants, memberships, authorizer, events, nil)

	tenant, err := svc.Create(context.Background(), "u1", CreateTenantInput{Name: "Pfadi Falken", Slug: "falken"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	founder, err := memberships.GetByUserAndTenant(context.Background(), "u1", tenant.ID)
	if err != nil {
		t.Fatalf("founder membership missing: %v", err)
	}
	if founder.Role != domain.RoleAdmin {
		t.Errorf("founder should be admin, got %s", founder.Role)
	}
	if len(events.tenantCreated) != 1 {
		t.Error("expected a tenant created event")
	}
}

func TestTenantCreateDuplicateSlug(t *testing.T) {
	tenants := &tenantRepoMock{tenants: map[string]domain.Tenant{
		"abt1": {ID: "abt1", Slug: "falken"},
	}}
	authorizer := newStaticAuthorizer(domain.UserProfile{ID: "u1"})
	svc := NewTenantService(tenants, &membershipRepoMock{}, authorizer, nil, nil)

	if _, err := svc.Create(context.Background(), "u1", CreateTenantInput{Name: "x", Slug: "Falken"}); !errors.Is(err, ErrTenantExists) {
		t.Fatalf("expected ErrTenantExists, got %v", err)
	}
}

func TestTenantUpdateRequiresGrant(t *testing.T) {
	tenants := &tenantRepoMock{tenants: map[string]domain.Tenant{
		"abt1": {ID: "abt1", Name: "Falken"},
		"abt2": {ID: "abt2", Name: "Adler"},
	}}

	authorizer := newStaticAuthorizer(domain.UserProfile{
		ID:          "u1",
		TenantRoles: map[string]domain.TenantRole{"abt1": domain.RoleAdmin},
	})
	svc := NewTenantService(tenants, &membershipRepoMock{}, authorizer, nil, nil)
	ctx := context.Background()

	name := "Falken neu"
	tenant, err := svc.Update(ctx, "u1", UpdateTenantInput{ID: "abt1", Name: &name})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tenant.Name != "Falken neu" {
		t.Errorf("expected updated name, got %q", tenant.Name)
	}

	if _, err := svc.Update(ctx, "u1", UpdateTenantInput{ID: "abt2", Name: &name}); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("admin of abt1 must not update abt2, got %v", err)
	}
}

func TestTenantDeleteRequiresGrant(t *testing.T) {
	tenants := &tenantRepoMock{tenants: map[string]domain.Tenant{
		"abt1": {ID: "abt1"},
	}}
	events := &publisherMock{}

	guest := newStaticAuthorizer(domain.UserProfile{
		ID:          "u1",
		TenantRoles: map[string]domain.TenantRole{"abt1": domain.RoleGuest},
	})
	svc := NewTenantService(tenants, &membershipRepoMock{}, guest, events, nil)
	ctx := context.Background()

	if err := svc.Delete(ctx, "u1", "abt1"); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("guest must not delete the tenant, got %v", err)
	}

	admin := newStaticAuthorizer(domain.UserProfile{
		ID:          "u1",
		TenantRoles: map[string]domain.TenantRole{"abt1": domain.RoleAdmin},
	})
	svc = NewTenantService(tenants, &membershipRepoMock{}, admin, events, nil)

	if err := svc.Delete(ctx, "u1", "abt1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events.tenantDeleted) != 1 {
		t.Error("expected a tenant deleted event")
	}
}

func TestTenantCreatePublishesFounderMembership(t *testing.T) {
	events := &publisherMock{}
	invalidator := &invalidatorMock{}
	authorizer := newStaticAuthorizer(domain.UserProfile{ID: "u1"})
	svc := NewTenantService(&tenantRepoMock{}, &membershipRepoMock{}, authorizer, events, nil).
		WithInvalidator(invalidator)

	tenant, err := svc.Create(context.Background(), "u1", CreateTenantInput{Name: "Pfadi Falken", Slug: "falken"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(events.membershipEvents) != 1 {
		t.Fatalf("expected a membership changed event for the founder, got %d", len(events.membershipEvents))
	}
	event := events.membershipEvents[0]
	if event.UserID != "u1" || event.TenantID != tenant.ID {
		t.Errorf("event targets %s/%s, want u1/%s", event.UserID, event.TenantID, tenant.ID)
	}
	if event.Role != domain.RoleAdmin {
		t.Errorf("expected admin role in event, got %s", event.Role)
	}
	if event.ChangeType != domain.MembershipChangeApproved {
		t.Errorf("expected %s change type, got %s", domain.MembershipChangeApproved, event.ChangeType)
	}
	if len(invalidator.invalidated) != 1 || invalidator.invalidated[0] != "u1" {
		t.Errorf("expected founder profile invalidated, got %v", invalidator.invalidated)
	}
}

func TestTenantCreateRefreshesFounderAbilities(t *testing.T) {
	users := &userRepoMock{users: map[string]domain.User{"u1": {ID: "u1"}}}
	memberships := &membershipRepoMock{}
	cache := &profileCacheMock{}

	profiles := NewProfileService(users, memberships, nil).WithCache(cache, time.Minute)
	abilities := NewAbilityService(profiles, nil)
	svc := NewTenantService(&tenantRepoMock{}, memberships, abilities, &publisherMock{}, nil).
		WithInvalidator(abilities)
	ctx := context.Background()

	// Warm the cache with the pre-founding profile.
	if allowed, err := abilities.Can(ctx, "u1", domain.ActionUpdate, domain.ClassOf(domain.KindTenant)); err != nil || allowed {
		t.Fatalf("expected no update grant before founding, got %v (%v)", allowed, err)
	}

	tenant, err := svc.Create(ctx, "u1", CreateTenantInput{Name: "Pfadi Falken", Slug: "falken"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	allowed, err := abilities.Can(ctx, "u1", domain.ActionUpdate, domain.TenantSubject(tenant.ID))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed {
		t.Fatal("founder should administer the new tenant immediately, not after the cached profile expires")
	}
}

func TestTenantDeleteRemovesMemberships(t *testing.T) {
	tenants := &tenantRepoMock{tenants: map[string]domain.Tenant{"abt1": {ID: "abt1"}}}
	memberships := &membershipRepoMock{memberships: map[string]domain.Membership{
		"m1": {ID: "m1", UserID: "u1", TenantID: "abt1", Role: domain.RoleAdmin},
		"m2": {ID: "m2", UserID: "u2", TenantID: "abt1", Role: domain.RoleMember},
		"m3": {ID: "m3", UserID: "u2", TenantID: "abt2", Role: domain.RoleMember},
	}}
	events := &publisherMock{}
	invalidator := &invalidatorMock{}

	admin := newStaticAuthorizer(domain.UserProfile{
		ID:          "u1",
		TenantRoles: map[string]domain.TenantRole{"abt1": domain.RoleAdmin},
	})
	svc := NewTenantService(tenants, memberships, admin, events, nil).
		WithInvalidator(invalidator)
	ctx := context.Background()

	if err := svc.Delete(ctx, "u1", "abt1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rows, _ := memberships.ListByTenant(ctx, "abt1"); len(rows) != 0 {
		t.Errorf("expected no memberships left in the deleted tenant, got %d", len(rows))
	}
	if rows, _ := memberships.ListByTenant(ctx, "abt2"); len(rows) != 1 {
		t.Errorf("memberships of other tenants must survive, got %d", len(rows))
	}

	if len(events.membershipEvents) != 2 {
		t.Fatalf("expected a removed event per member, got %d", len(events.membershipEvents))
	}
	for _, event := range events.membershipEvents {
		if event.ChangeType != domain.MembershipChangeRemoved {
			t.Errorf("expected %s change type, got %s", domain.MembershipChangeRemoved, event.ChangeType)
		}
	}
	if len(invalidator.invalidated) != 2 {
		t.Errorf("expected both members invalidated, got %v", invalidator.invalidated)
	}
}

func TestTenantGetPendingDenied(t *testing.T) {
	tenants := &tenantRepoMock{tenants: map[string]domain.Tenant{"abt1": {ID: "abt1"}}}

	pending := newStaticAuthorizer(domain.UserProfile{
		ID:          "u1",
		TenantRoles: map[string]domain.TenantRole{"abt1": domain.RolePending},
	})
	svc := NewTenantService(tenants, &membershipRepoMock{}, pending, nil, nil)

	if _, err := svc.Get(context.Background(), "u1", "abt1"); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("pending member must not read the tenant, got %v", err)
	}
}
