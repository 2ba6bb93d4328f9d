package usecase

import (
	"github.com/cevi/onlinemat-sub000/internal/core/domain"
)

// BuildRules derives the complete rule list for a user profile. It is pure
// and total: any well-formed profile, including one with a nil tenant-role
// map, produces a deterministic rule list without error.
//
// Global staff is a full bypass of tenant scoping: when the flag is set the
// unconditional rules already dominate every tenant-scoped grant, so no
// per-tenant rules are emitted at all.
func BuildRules(profile domain.UserProfile) []domain.Rule {
	if profile.GlobalStaff {
		return staffRules()
	}

	rules := make([]domain.Rule, 0, 4+12*len(profile.TenantRoles))

	// Any authenticated non-staff user may found a new tenant. This is the
	// sole grant independent of tenant membership.
	rules = append(rules, domain.Rule{Action: domain.ActionCreate, Kind: domain.KindTenant})

	for tenantID, role := range profile.TenantRoles {
		rules = append(rules, tenantRules(tenantID, role)...)
	}

	return rules
}

// staffRules grants unconditional access across all tenants.
func staffRules() []domain.Rule {
	rules := make([]domain.Rule, 0, 32)

	crudKinds := []domain.SubjectKind{
		domain.KindTenant,
		domain.KindMaterial,
		domain.KindCategory,
		domain.KindLocation,
		domain.KindMembership,
	}
	for _, kind := range crudKinds {
		rules = appendActions(rules, kind, nil,
			domain.ActionCreate, domain.ActionRead, domain.ActionUpdate, domain.ActionDelete)
	}

	rules = appendActions(rules, domain.KindInvitation, nil,
		domain.ActionCreate, domain.ActionRead, domain.ActionDelete)
	rules = appendActions(rules, domain.KindUserProfile, nil,
		domain.ActionRead, domain.ActionUpdate)
	rules = appendActions(rules, domain.KindUsersList, nil,
		domain.ActionRead)
	rules = appendActions(rules, domain.KindOrder, nil,
		domain.ActionCreate, domain.ActionRead, domain.ActionUpdate, domain.ActionDelete, domain.ActionDeliver)

	return rules
}

// tenantRules applies the role template for one tenant. An unknown role value
// degrades to the baseline grants, the same as guest or member.
func tenantRules(tenantID string, role domain.TenantRole) []domain.Rule {
	byTenant := map[string]string{domain.ScopeFieldTenantID: tenantID}
	byID := map[string]string{domain.ScopeFieldID: tenantID}

	rules := make([]domain.Rule, 0, 16)

	switch role {
	case domain.RoleAdmin:
		rules = appendActions(rules, domain.KindTenant, byID,
			domain.ActionUpdate, domain.ActionDelete)
		rules = appendActions(rules, domain.KindMaterial, byTenant,
			domain.ActionCreate, domain.ActionUpdate, domain.ActionDelete)
		rules = appendActions(rules, domain.KindCategory, byTenant,
			domain.ActionCreate, domain.ActionUpdate, domain.ActionDelete)
		rules = appendActions(rules, domain.KindOrder, byTenant,
			domain.ActionCreate, domain.ActionRead, domain.ActionUpdate, domain.ActionDelete, domain.ActionDeliver)
		rules = appendActions(rules, domain.KindInvitation, byTenant,
			domain.ActionCreate, domain.ActionRead, domain.ActionDelete)
	case domain.RoleMatchef:
		rules = appendActions(rules, domain.KindMaterial, byTenant,
			domain.ActionCreate, domain.ActionUpdate, domain.ActionDelete)
		rules = appendActions(rules, domain.KindCategory, byTenant,
			domain.ActionCreate, domain.ActionUpdate, domain.ActionDelete)
		rules = appendActions(rules, domain.KindOrder, byTenant,
			domain.ActionCreate, domain.ActionRead, domain.ActionUpdate, domain.ActionDelete, domain.ActionDeliver)
	}

	// A pending join request must not yet see tenant contents.
	if role != domain.RolePending {
		rules = appendActions(rules, domain.KindTenant, byID, domain.ActionRead)
	}

	// Anyone ever associated with the tenant, pending included, may submit a
	// loan request; approval gates visibility, not the ability to ask.
	rules = appendActions(rules, domain.KindOrder, byTenant, domain.ActionCreate)

	return rules
}

func appendActions(rules []domain.Rule, kind domain.SubjectKind, scope map[string]string, actions ...domain.Action) []domain.Rule {
	for _, action := range actions {
		rules = append(rules, domain.Rule{Action: action, Kind: kind, Scope: scope})
	}
	return rules
}
