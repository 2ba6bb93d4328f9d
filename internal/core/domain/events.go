package domain

import "time"

// Membership change types carried on MembershipChangedEvent.
const (
	MembershipChangeRequested = "requested"
	MembershipChangeApproved  = "approved"
	MembershipChangeRoleSet   = "role_set"
	MembershipChangeBanned    = "banned"
	MembershipChangeUnbanned  = "unbanned"
	MembershipChangeRemoved   = "removed"
)

// MembershipChangedEvent represents the payload for authz.membership.changed
// messages. Consumers invalidate cached profiles so the next decision is made
// against a freshly rebuilt rule set.
type MembershipChangedEvent struct {
	EventID    string     `json:"event_id"`
	UserID     string     `json:"user_id"`
	TenantID   string     `json:"tenant_id"`
	Role       TenantRole `json:"role"`
	Banned     bool       `json:"banned"`
	ChangeType string     `json:"change_type"`
	ChangedBy  string     `json:"changed_by"`
	ChangedAt  time.Time  `json:"changed_at"`
}

// TenantCreatedEvent represents the payload for authz.tenant.created messages.
// The founder is granted the admin role alongside the tenant, so their
// profile must be invalidated as well.
type TenantCreatedEvent struct {
	EventID   string    `json:"event_id"`
	TenantID  string    `json:"tenant_id"`
	Name      string    `json:"name"`
	FounderID string    `json:"founder_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TenantDeletedEvent represents the payload for authz.tenant.deleted messages.
type TenantDeletedEvent struct {
	EventID   string    `json:"event_id"`
	TenantID  string    `json:"tenant_id"`
	DeletedBy string    `json:"deleted_by"`
	DeletedAt time.Time `json:"deleted_at"`
}
