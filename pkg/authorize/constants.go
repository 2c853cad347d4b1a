package authorize

import (
	"fmt"
	"regexp"
	"strings"
)

type Action string
type Resource string
type Role string
type Domain string

// ----------------------------
// Actions
// ----------------------------

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionList   Action = "list"

	// ActionManage covers create, read, update, delete and list.
	ActionManage Action = "manage"

	// Session lifecycle
	ActionReview Action = "review"
	ActionClose  Action = "close"

	// Documents
	ActionExport Action = "export"

	ActionGrant Action = "grant"
)

const (
	WildcardAction Action = "*"
)

var KnownActions = map[Action]struct{}{
	ActionCreate: {}, ActionRead: {}, ActionUpdate: {}, ActionDelete: {}, ActionList: {},
	ActionManage: {}, ActionReview: {}, ActionClose: {}, ActionExport: {}, ActionGrant: {},
}

// ----------------------------
// Resources
// ----------------------------

const (
	WildcardResource Resource = "*"

	ResourceCatalog    Resource = "catalog"
	ResourceGameConfig Resource = "game_config"
	ResourceSession    Resource = "session"
	ResourcePatient    Resource = "patient"
	ResourceReport     Resource = "report"
	ResourceDraft      Resource = "draft"
	ResourceDocument   Resource = "document"
	ResourceStats      Resource = "stats"

	ResourceSystem Resource = "system"
	ResourceRBAC   Resource = "rbac"
)

var KnownResources = map[Resource]struct{}{
	ResourceCatalog: {}, ResourceGameConfig: {}, ResourceSession: {}, ResourcePatient: {},
	ResourceReport: {}, ResourceDraft: {}, ResourceDocument: {}, ResourceStats: {},
	ResourceSystem: {}, ResourceRBAC: {},
}

// ----------------------------
// Roles
// ----------------------------
//
// Roles are policy subjects. Tokens carry the bare role name ("therapist");
// RoleFor maps it to the policy subject.

const (
	WildcardRole Role = "*"

	RoleAdmin      Role = "role:admin"
	RoleTherapist  Role = "role:therapist"
	RoleInstructor Role = "role:instructor"
	RolePatient    Role = "role:patient"
)

var KnownRoles = map[Role]struct{}{
	RoleAdmin:      {},
	RoleTherapist:  {},
	RoleInstructor: {},
	RolePatient:    {},
}

// RoleFor maps a token role claim to its policy subject.
func RoleFor(claim string) (Role, bool) {
	r := Role("role:" + strings.ToLower(strings.TrimSpace(claim)))
	_, ok := KnownRoles[r]
	return r, ok
}

// ----------------------------
// Domains
// ----------------------------

const (
	DomainSys      Domain = "sys"
	WildcardDomain Domain = "*"

	// DomainPrefixUser scopes grants to a single user's records.
	DomainPrefixUser Domain = "user:"
)

var reID = regexp.MustCompile(`^[A-Za-z0-9._@-]+$`)

func UserDomain(userID string) Domain {
	return Domain(fmt.Sprintf("%s%s", DomainPrefixUser, userID))
}

// IsValidDomain checks whether d is a recognised domain string.
func IsValidDomain(d Domain) bool {
	if d == DomainSys || d == WildcardDomain {
		return true
	}
	id, ok := strings.CutPrefix(string(d), string(DomainPrefixUser))
	return ok && reID.MatchString(id)
}

// ----------------------------
// Casbin tuple helpers
// ----------------------------

type PolicyEffect string

const (
	EffectAllow PolicyEffect = "allow"
	EffectDeny  PolicyEffect = "deny"
)

// GroupSubject is the g.sub in Casbin: a concrete principal id, or a role
// when enforcing on behalf of a token's role claim.
type GroupSubject string

// Grouping rows: g, user_id, role, domain
type GroupingPolicy struct {
	Subject GroupSubject
	Role    Role
	Domain  Domain
}

// Permission rows: p, role, domain, resource, action, eft
type PermissionPolicy struct {
	Subject Role
	Domain  Domain
	Object  Resource
	Action  Action
	Effect  PolicyEffect
}
