package usecase

import (
	"context"
	"sync"
	"testing"

	"github.com/cevi/onlinemat-sub000/internal/core/domain"
)

func TestAbilityStoreEmptyDeniesEverything(t *testing.T) {
	store := NewAbilityStore()

	if store.Can(domain.ActionRead, domain.TenantSubject("abt1")) {
		t.Fatal("a store that was never rebuilt must deny everything")
	}
	if store.Can(domain.ActionCreate, domain.ClassOf(domain.KindTenant)) {
		t.Fatal("a store that was never rebuilt must deny class-level queries")
	}
}

func TestAbilityStoreRebuildReplacesNeverMerges(t *testing.T) {
	store := NewAbilityStore()

	store.Rebuild(domain.UserProfile{
		ID:          "u1",
		TenantRoles: map[string]domain.TenantRole{"abt1": domain.RoleAdmin},
	})
	if !store.Can(domain.ActionDelete, domain.SubjectIn(domain.KindMaterial, "abt1")) {
		t.Fatal("admin should delete material in abt1")
	}

	// Demotion: the admin grant must not survive the second rebuild.
	store.Rebuild(domain.UserProfile{
		ID:          "u1",
		TenantRoles: map[string]domain.TenantRole{"abt1": domain.RoleGuest},
	})
	if store.Can(domain.ActionDelete, domain.SubjectIn(domain.KindMaterial, "abt1")) {
		t.Fatal("residual admin grant survived a rebuild")
	}
	if !store.Can(domain.ActionCreate, domain.SubjectIn(domain.KindOrder, "abt1")) {
		t.Fatal("guest baseline should remain after demotion")
	}
}

func TestAbilityStoreLogoutClearsRules(t *testing.T) {
	store := NewAbilityStore()
	store.Rebuild(domain.UserProfile{ID: "u1", GlobalStaff: true})

	// Logout is modeled as a profile with no staff flag and no roles.
	store.Rebuild(domain.UserProfile{})

	if store.Can(domain.ActionRead, domain.TenantSubject("abt1")) {
		t.Fatal("staff grant survived logout")
	}
}

func TestAbilityStoreConcurrentReads(t *testing.T) {
	store := NewAbilityStore()
	store.Rebuild(domain.UserProfile{
		ID:          "u1",
		TenantRoles: map[string]domain.TenantRole{"abt1": domain.RoleMatchef},
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				store.Can(domain.ActionUpdate, domain.SubjectIn(domain.KindMaterial, "abt1"))
			}
		}()
	}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				store.Rebuild(domain.UserProfile{
					ID:          "u1",
					TenantRoles: map[string]domain.TenantRole{"abt1": domain.RoleMatchef},
				})
			}
		}()
	}
	wg.Wait()

	if !store.Can(domain.ActionUpdate, domain.SubjectIn(domain.KindMaterial, "abt1")) {
		t.Fatal("store should survive concurrent rebuilds and reads")
	}
}

func TestAbilityServiceRebuildsOnProfileChange(t *testing.T) {
	users := &userRepoMock{users: map[string]domain.User{
		"u1": {ID: "u1"},
	}}
	memberships := &membershipRepoMock{rolesByUser: map[string]map[string]domain.TenantRole{
		"u1": {"abt1": domain.RoleAdmin},
	}}

	profiles := NewProfileService(users, memberships, nil)
	abilities := NewAbilityService(profiles, nil)
	ctx := context.Background()

	allowed, err := abilities.Can(ctx, "u1", domain.ActionDelete, domain.SubjectIn(domain.KindMaterial, "abt1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed {
		t.Fatal("admin should delete material")
	}

	// Demote in the durable store; no cache is configured, so the next
	// decision sees the change immediately.
	memberships.rolesByUser["u1"] = map[string]domain.TenantRole{"abt1": domain.RoleGuest}

	allowed, err = abilities.Can(ctx, "u1", domain.ActionDelete, domain.SubjectIn(domain.KindMaterial, "abt1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed {
		t.Fatal("demoted user kept the admin grant")
	}
}

func TestAbilityServiceUnknownUser(t *testing.T) {
	profiles := NewProfileService(&userRepoMock{}, &membershipRepoMock{}, nil)
	abilities := NewAbilityService(profiles, nil)

	if _, err := abilities.Can(context.Background(), "ghost", domain.ActionRead, domain.TenantSubject("abt1")); err == nil {
		t.Fatal("expected an error for an unknown user")
	}
}

func TestAbilityServiceInvalidateDropsStore(t *testing.T) {
	users := &userRepoMock{users: map[string]domain.User{"u1": {ID: "u1"}}}
	memberships := &membershipRepoMock{rolesByUser: map[string]map[string]domain.TenantRole{
		"u1": {"abt1": domain.RoleMatchef},
	}}

	profiles := NewProfileService(users, memberships, nil)
	abilities := NewAbilityService(profiles, nil)
	ctx := context.Background()

	if _, err := abilities.StoreFor(ctx, "u1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := abilities.Invalidate(ctx, "u1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	allowed, err := abilities.Can(ctx, "u1", domain.ActionUpdate, domain.SubjectIn(domain.KindMaterial, "abt1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed {
		t.Fatal("store should be rebuilt after invalidation")
	}
}
