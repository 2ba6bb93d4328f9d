package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cevi/onlinemat-sub000/internal/core/domain"
	"github.com/cevi/onlinemat-sub000/internal/transport/http/middleware"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	return ErrorResponse{
		Error:   errorMsg,
		TraceID: middleware.GetTraceID(c),
	}
}

// SubjectPayload identifies a concrete record in a check request. A check
// without a subject payload asks about the kind as a whole.
type SubjectPayload struct {
	ID       string `json:"id,omitempty"`
	TenantID string `json:"tenantId,omitempty"`
}

// CheckRequest asks whether the caller may perform an action.
type CheckRequest struct {
	Action  string          `json:"action" binding:"required"`
	Kind    string          `json:"kind" binding:"required"`
	Subject *SubjectPayload `json:"subject,omitempty"`
}

// CheckResponse carries the authorization decision.
type CheckResponse struct {
	Allowed bool `json:"allowed"`
}

// RulePayload is the wire form of a single grant.
type RulePayload struct {
	Action string            `json:"action"`
	Kind   string            `json:"kind"`
	Scope  map[string]string `json:"scope,omitempty"`
}

// RulesResponse lists the caller's compiled grants.
type RulesResponse struct {
	Rules []RulePayload `json:"rules"`
}

// TenantCreateRequest is the payload for founding a tenant.
type TenantCreateRequest struct {
	Name        string  `json:"name" binding:"required"`
	Slug        string  `json:"slug" binding:"required"`
	Description *string `json:"description,omitempty"`
}

// TenantUpdateRequest is the payload for updating tenant metadata.
type TenantUpdateRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// TenantPayload is the wire form of a tenant.
type TenantPayload struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TenantListResponse lists tenants.
type TenantListResponse struct {
	Tenants []TenantPayload `json:"tenants"`
}

// MembershipRoleRequest sets a member's role.
type MembershipRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// MembershipBanRequest flips a member's ban flag.
type MembershipBanRequest struct {
	Banned bool `json:"banned"`
}

// MembershipPayload is the wire form of a membership.
type MembershipPayload struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TenantID  string    `json:"tenant_id"`
	Role      string    `json:"role"`
	Banned    bool      `json:"banned"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MembershipListResponse lists a tenant's roster.
type MembershipListResponse struct {
	Memberships []MembershipPayload `json:"memberships"`
}

// HealthResponse describes the service health payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

func tenantPayload(t domain.Tenant) TenantPayload {
	return TenantPayload{
		ID:          t.ID,
		Name:        t.Name,
		Slug:        t.Slug,
		Description: t.Description,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func membershipPayload(m domain.Membership) MembershipPayload {
	return MembershipPayload{
		ID:        m.ID,
		UserID:    m.UserID,
		TenantID:  m.TenantID,
		Role:      string(m.Role),
		Banned:    m.Banned,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
