package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cevi/onlinemat-sub000/internal/core/domain"
)

func TestProfileServiceLoadAssemblesSnapshot(t *testing.T) {
	users := &userRepoMock{users: map[string]domain.User{
		"u1": {ID: "u1", GlobalStaff: true},
	}}
	memberships := &membershipRepoMock{rolesByUser: map[string]map[string]domain.TenantRole{
		"u1": {"abt1": domain.RoleAdmin, "abt2": domain.RolePending},
	}}

	svc := NewProfileService(users, memberships, nil)

	profile, err := svc.Load(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !profile.GlobalStaff {
		t.Error("expected staff flag to carry over")
	}
	if len(profile.TenantRoles) != 2 {
		t.Fatalf("expected 2 tenant roles, got %d", len(profile.TenantRoles))
	}
	if profile.TenantRoles["abt2"] != domain.RolePending {
		t.Errorf("expected pending role in abt2, got %s", profile.TenantRoles["abt2"])
	}
}

func TestProfileServiceLoadUnknownUser(t *testing.T) {
	svc := NewProfileService(&userRepoMock{}, &membershipRepoMock{}, nil)

	if _, err := svc.Load(context.Background(), "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestProfileServiceLoadEmptyID(t *testing.T) {
	svc := NewProfileService(&userRepoMock{}, &membershipRepoMock{}, nil)

	if _, err := svc.Load(context.Background(), "  "); err == nil {
		t.Fatal("expected an error for a blank user id")
	}
}

func TestProfileServiceCacheHitSkipsRepositories(t *testing.T) {
	cache := &profileCacheMock{profiles: map[string]domain.UserProfile{
		"u1": {ID: "u1", TenantRoles: map[string]domain.TenantRole{"abt1": domain.RoleGuest}},
	}}

	// Repos are empty: a repository hit would return ErrUserNotFound.
	svc := NewProfileService(&userRepoMock{}, &membershipRepoMock{}, nil).
		WithCache(cache, time.Minute)

	profile, err := svc.Load(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.TenantRoles["abt1"] != domain.RoleGuest {
		t.Error("expected the cached snapshot")
	}
	if cache.gets != 1 {
		t.Errorf("expected 1 cache read, got %d", cache.gets)
	}
}

func TestProfileServiceCacheMissPopulatesCache(t *testing.T) {
	users := &userRepoMock{users: map[string]domain.User{"u1": {ID: "u1"}}}
	memberships := &membershipRepoMock{rolesByUser: map[string]map[string]domain.TenantRole{
		"u1": {"abt1": domain.RoleMember},
	}}
	cache := &profileCacheMock{}

	svc := NewProfileService(users, memberships, nil).WithCache(cache, time.Minute)

	if _, err := svc.Load(context.Background(), "u1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cache.sets != 1 {
		t.Errorf("expected the snapshot to be cached, sets=%d", cache.sets)
	}
}

func TestProfileServiceCacheFailureFallsThrough(t *testing.T) {
	users := &userRepoMock{users: map[string]domain.User{"u1": {ID: "u1"}}}
	memberships := &membershipRepoMock{}
	cache := &profileCacheMock{getErr: errors.New("redis down"), setErr: errors.New("redis down")}

	svc := NewProfileService(users, memberships, nil).WithCache(cache, time.Minute)

	profile, err := svc.Load(context.Background(), "u1")
	if err != nil {
		t.Fatalf("cache outage must not fail the load: %v", err)
	}
	if profile.ID != "u1" {
		t.Errorf("unexpected profile %+v", profile)
	}
}

func TestProfileServiceInvalidate(t *testing.T) {
	cache := &profileCacheMock{profiles: map[string]domain.UserProfile{"u1": {ID: "u1"}}}
	svc := NewProfileService(&userRepoMock{}, &membershipRepoMock{}, nil).
		WithCache(cache, time.Minute)

	if err := svc.Invalidate(context.Background(), "u1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cache.deletes != 1 {
		t.Errorf("expected 1 eviction, got %d", cache.deletes)
	}
}
