package authorize

import (
	"context"
	"log/slog"
)

// DefaultPolicies is the baseline permission set for the three staff and
// patient roles.
func DefaultPolicies() []PermissionPolicy {
	return []PermissionPolicy{
		{RoleAdmin, WildcardDomain, WildcardResource, WildcardAction, EffectAllow},

		{RoleTherapist, DomainSys, ResourceCatalog, ActionRead, EffectAllow},
		{RoleTherapist, DomainSys, ResourceGameConfig, ActionManage, EffectAllow},
		{RoleTherapist, DomainSys, ResourcePatient, ActionManage, EffectAllow},
		{RoleTherapist, DomainSys, ResourceSession, ActionManage, EffectAllow},
		{RoleTherapist, DomainSys, ResourceSession, ActionReview, EffectAllow},
		{RoleTherapist, DomainSys, ResourceSession, ActionClose, EffectAllow},
		{RoleTherapist, DomainSys, ResourceReport, ActionManage, EffectAllow},
		{RoleTherapist, DomainSys, ResourceDraft, ActionCreate, EffectAllow},
		{RoleTherapist, DomainSys, ResourceDocument, ActionExport, EffectAllow},
		{RoleTherapist, DomainSys, ResourceDocument, ActionRead, EffectAllow},
		{RoleTherapist, DomainSys, ResourceStats, ActionRead, EffectAllow},

		{RoleInstructor, DomainSys, ResourceCatalog, ActionRead, EffectAllow},
		{RoleInstructor, DomainSys, ResourceGameConfig, ActionRead, EffectAllow},
		{RoleInstructor, DomainSys, ResourcePatient, ActionRead, EffectAllow},
		{RoleInstructor, DomainSys, ResourceSession, ActionCreate, EffectAllow},
		{RoleInstructor, DomainSys, ResourceSession, ActionRead, EffectAllow},
		{RoleInstructor, DomainSys, ResourceSession, ActionList, EffectAllow},
		{RoleInstructor, DomainSys, ResourceSession, ActionReview, EffectAllow},
		{RoleInstructor, DomainSys, ResourceSession, ActionClose, EffectAllow},

		{RolePatient, DomainSys, ResourceCatalog, ActionRead, EffectAllow},
		{RolePatient, DomainSys, ResourceGameConfig, ActionRead, EffectAllow},
		{RolePatient, DomainSys, ResourceSession, ActionRead, EffectAllow},
	}
}

// SeedDefaultPolicies sets up the baseline RBAC policies. Existing rows are
// left alone, so it is safe to run on every start.
func SeedDefaultPolicies(ctx context.Context, auth IAuthorization) error {
	logger := slog.Default()
	policies := DefaultPolicies()

	added := 0
	for _, p := range policies {
		ok, err := auth.AddPermission(ctx, p.Subject, p.Domain, p.Object, p.Action, p.Effect)
		if err != nil {
			logger.Error("failed to add policy", "policy", p, "error", err)
			return err
		}
		if ok {
			added++
			logger.Debug("added policy", "role", p.Subject, "domain", p.Domain, "resource", p.Object, "action", p.Action)
		}
	}

	logger.Info("seeded default RBAC policies", "count", len(policies), "added", added)
	return nil
}

// AssignAdmin grants the admin role in the sys domain.
func AssignAdmin(ctx context.Context, auth IAuthorization, userID string) error {
	_, err := auth.AddRoleForUserInDomain(ctx, GroupSubject(userID), RoleAdmin, DomainSys)
	return err
}

// RevokeAdmin removes the admin role from a user.
func RevokeAdmin(ctx context.Context, auth IAuthorization, userID string) error {
	_, err := auth.RemoveRoleForUserInDomain(ctx, GroupSubject(userID), RoleAdmin, DomainSys)
	return err
}
