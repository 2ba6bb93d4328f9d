package domain

// Action enumerates the operations gated by an authorization decision.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	// ActionDeliver marks a loan order as physically handed out. It is
	// distinct from ActionUpdate: not every role that may modify an order
	// may hand out material.
	ActionDeliver Action = "deliver"
)

// SubjectKind enumerates the domain object kinds a rule can refer to.
type SubjectKind string

const (
	KindTenant      SubjectKind = "tenant"
	KindMaterial    SubjectKind = "material"
	KindCategory    SubjectKind = "category"
	KindLocation    SubjectKind = "location"
	KindOrder       SubjectKind = "order"
	KindGroup       SubjectKind = "group"
	KindMembership  SubjectKind = "membership"
	KindUserProfile SubjectKind = "user_profile"
	KindInvitation  SubjectKind = "invitation"
	// KindUsersList is a pseudo-kind gating the global list of all user
	// accounts rather than a concrete record.
	KindUsersList SubjectKind = "users_list"
)

// KnownAction reports whether the action is one of the defined verbs.
func KnownAction(action Action) bool {
	switch action {
	case ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionDeliver:
		return true
	default:
		return false
	}
}

// KnownKind reports whether the kind is one this engine rules over.
func KnownKind(kind SubjectKind) bool {
	switch kind {
	case KindTenant, KindMaterial, KindCategory, KindLocation, KindOrder,
		KindGroup, KindMembership, KindUserProfile, KindInvitation, KindUsersList:
		return true
	default:
		return false
	}
}

// Scope field names used by rule conditions.
const (
	ScopeFieldID       = "id"
	ScopeFieldTenantID = "tenantId"
)

// Subject identifies the object of an authorization decision: either a bare
// kind ("can I create a tenant at all") or a concrete instance carrying the
// identifying fields a rule scope may be matched against.
type Subject struct {
	Kind     SubjectKind
	ID       string
	TenantID string

	class bool
}

// ClassOf builds a class-level subject with no instance identity. Only rules
// with an empty scope can satisfy a class-level query.
func ClassOf(kind SubjectKind) Subject {
	return Subject{Kind: kind, class: true}
}

// TenantSubject builds an instance subject for the tenant with the given id.
// Tenants are the one kind scoped by their own id rather than a tenantId.
func TenantSubject(id string) Subject {
	return Subject{Kind: KindTenant, ID: id}
}

// SubjectIn builds an instance subject of the given kind belonging to a tenant.
func SubjectIn(kind SubjectKind, tenantID string) Subject {
	return Subject{Kind: kind, TenantID: tenantID}
}

// IsClass reports whether the subject is a bare kind token.
func (s Subject) IsClass() bool {
	return s.class
}

// field resolves a scope field name against the subject instance. Unknown
// field names resolve to false so a rule conditioned on them never matches.
func (s Subject) field(name string) (string, bool) {
	switch name {
	case ScopeFieldID:
		return s.ID, true
	case ScopeFieldTenantID:
		return s.TenantID, true
	default:
		return "", false
	}
}

// Rule grants one action on one subject kind. An empty scope matches any
// instance of the kind; a non-empty scope matches only instances whose fields
// equal every scope entry. There is no deny rule: an action is denied by the
// absence of a matching rule.
type Rule struct {
	Action Action
	Kind   SubjectKind
	Scope  map[string]string
}

// Matches reports whether the rule grants the requested action on the subject.
func (r Rule) Matches(action Action, subject Subject) bool {
	if r.Action != action || r.Kind != subject.Kind {
		return false
	}

	if subject.IsClass() {
		// A class-level query asks "can I do this irrespective of tenant";
		// only an unconditional grant satisfies it.
		return len(r.Scope) == 0
	}

	for name, want := range r.Scope {
		got, ok := subject.field(name)
		if !ok || got != want {
			return false
		}
	}

	return true
}

// RuleSet holds the ordered rule list derived from one user profile snapshot.
// It is a union of grants: a decision is allowed iff at least one rule
// matches. The set is always replaced wholesale, never patched, so no stale
// rule from a previous role can survive a profile change.
type RuleSet struct {
	rules []Rule
}

// NewRuleSet builds a rule set over the provided rules.
func NewRuleSet(rules []Rule) *RuleSet {
	s := &RuleSet{}
	s.Replace(rules)
	return s
}

// Replace swaps the entire active rule list. No partial-update API exists.
func (s *RuleSet) Replace(rules []Rule) {
	s.rules = append([]Rule(nil), rules...)
}

// Matches reports whether any rule grants the action on the subject. It never
// panics: an unrecognized kind or malformed subject simply matches nothing.
func (s *RuleSet) Matches(action Action, subject Subject) bool {
	if s == nil {
		return false
	}
	for _, rule := range s.rules {
		if rule.Matches(action, subject) {
			return true
		}
	}
	return false
}

// Rules returns a copy of the active rule list.
func (s *RuleSet) Rules() []Rule {
	if s == nil {
		return nil
	}
	return append([]Rule(nil), s.rules...)
}

// Len returns the number of active rules.
func (s *RuleSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.rules)
}
