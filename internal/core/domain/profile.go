package domain

import "time"

// TenantRole enumerates the permission levels a user can hold within one
// tenant. RolePending is a join request awaiting approval, not an elevated
// role: it only exists so the policy builder can special-case it.
type TenantRole string

const (
	RolePending TenantRole = "pending"
	RoleGuest   TenantRole = "guest"
	RoleMember  TenantRole = "member"
	RoleMatchef TenantRole = "matchef"
	RoleAdmin   TenantRole = "admin"
)

// KnownRole reports whether the value is one of the defined tenant roles.
func KnownRole(role TenantRole) bool {
	switch role {
	case RolePending, RoleGuest, RoleMember, RoleMatchef, RoleAdmin:
		return true
	default:
		return false
	}
}

// UserProfile is the snapshot the policy builder derives rules from. It is
// owned by the session collaborator; a logged-out session is modeled as
// GlobalStaff=false with an empty TenantRoles map.
type UserProfile struct {
	ID          string
	GlobalStaff bool
	TenantRoles map[string]TenantRole
}

// Equal reports whether two snapshots would produce the same rule set.
func (p UserProfile) Equal(other UserProfile) bool {
	if p.ID != other.ID || p.GlobalStaff != other.GlobalStaff {
		return false
	}
	if len(p.TenantRoles) != len(other.TenantRoles) {
		return false
	}
	for tenantID, role := range p.TenantRoles {
		if other.TenantRoles[tenantID] != role {
			return false
		}
	}
	return true
}

// Tenant is an independently administered organization unit owning its own
// materials, categories, locations, orders, and memberships.
type Tenant struct {
	ID          string
	Name        string
	Slug        string
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Membership assigns a tenant role to a user. Banned memberships keep their
// role; ban enforcement happens at the membership layer, the policy builder
// does not consult the flag.
type Membership struct {
	ID        string
	UserID    string
	TenantID  string
	Role      TenantRole
	Banned    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// User mirrors the persisted account record. GlobalStaff grants unconditional
// access across all tenants and is not tenant-scoped.
type User struct {
	ID           string
	Username     string
	Email        string
	GlobalStaff  bool
	RegisteredAt time.Time
}
