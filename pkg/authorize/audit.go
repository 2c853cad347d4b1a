package authorize

import (
	"context"
	"log/slog"
	"time"

	casbin "github.com/casbin/casbin/v2"

	"github.com/Alijeyrad/playcare_backend/pkg/reqctx"
)

// AuditedAuthorization logs every decision and policy change. Denials are
// warnings; allowed decisions are debug so a busy API does not drown the log.
type AuditedAuthorization struct {
	inner  IAuthorization
	logger *slog.Logger
}

func NewAuditedAuthorization(inner IAuthorization, logger *slog.Logger) IAuthorization {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditedAuthorization{inner: inner, logger: logger}
}

// record adds the caller and request id when the call came through the API.
func (a *AuditedAuthorization) record(ctx context.Context, level slog.Level, msg string, err error, attrs ...slog.Attr) {
	if actor, ok := reqctx.ActorFromContext(ctx); ok {
		attrs = append(attrs, slog.String("actor", actor.UserID))
	}
	if id := reqctx.RequestIDFromContext(ctx); id != "" {
		attrs = append(attrs, slog.String("request_id", id))
	}
	if err != nil {
		level = slog.LevelError
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	a.logger.LogAttrs(ctx, level, msg, attrs...)
}

func (a *AuditedAuthorization) Enforce(ctx context.Context, subject GroupSubject, domain Domain, object Resource, action Action) (bool, error) {
	start := time.Now()
	allowed, err := a.inner.Enforce(ctx, subject, domain, object, action)

	level := slog.LevelDebug
	if !allowed {
		level = slog.LevelWarn
	}
	a.record(ctx, level, "authz_decision", err,
		slog.String("subject", string(subject)),
		slog.String("domain", string(domain)),
		slog.String("resource", string(object)),
		slog.String("action", string(action)),
		slog.Bool("allowed", allowed),
		slog.Int64("duration_us", time.Since(start).Microseconds()),
	)
	return allowed, err
}

func (a *AuditedAuthorization) MustEnforce(ctx context.Context, subject GroupSubject, domain Domain, object Resource, action Action) error {
	ok, err := a.Enforce(ctx, subject, domain, object, action)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

func (a *AuditedAuthorization) AddRoleForUserInDomain(ctx context.Context, subject GroupSubject, role Role, domain Domain) (bool, error) {
	added, err := a.inner.AddRoleForUserInDomain(ctx, subject, role, domain)
	a.roleChange(ctx, "add_role", subject, role, domain, added, err)
	return added, err
}

func (a *AuditedAuthorization) RemoveRoleForUserInDomain(ctx context.Context, subject GroupSubject, role Role, domain Domain) (bool, error) {
	removed, err := a.inner.RemoveRoleForUserInDomain(ctx, subject, role, domain)
	a.roleChange(ctx, "remove_role", subject, role, domain, removed, err)
	return removed, err
}

func (a *AuditedAuthorization) roleChange(ctx context.Context, op string, subject GroupSubject, role Role, domain Domain, changed bool, err error) {
	a.record(ctx, slog.LevelInfo, "authz_role_change", err,
		slog.String("operation", op),
		slog.String("subject", string(subject)),
		slog.String("role", string(role)),
		slog.String("domain", string(domain)),
		slog.Bool("changed", changed),
	)
}

func (a *AuditedAuthorization) GetRolesForUserInDomain(ctx context.Context, subject GroupSubject, domain Domain) ([]Role, error) {
	return a.inner.GetRolesForUserInDomain(ctx, subject, domain)
}

func (a *AuditedAuthorization) AddPermission(ctx context.Context, role Role, domain Domain, object Resource, action Action, effect PolicyEffect) (bool, error) {
	added, err := a.inner.AddPermission(ctx, role, domain, object, action, effect)
	a.permissionChange(ctx, "add_permission", PermissionPolicy{Subject: role, Domain: domain, Object: object, Action: action, Effect: effect}, added, err)
	return added, err
}

func (a *AuditedAuthorization) RemovePermission(ctx context.Context, role Role, domain Domain, object Resource, action Action, effect PolicyEffect) (bool, error) {
	removed, err := a.inner.RemovePermission(ctx, role, domain, object, action, effect)
	a.permissionChange(ctx, "remove_permission", PermissionPolicy{Subject: role, Domain: domain, Object: object, Action: action, Effect: effect}, removed, err)
	return removed, err
}

func (a *AuditedAuthorization) permissionChange(ctx context.Context, op string, p PermissionPolicy, changed bool, err error) {
	a.record(ctx, slog.LevelInfo, "authz_permission_change", err,
		slog.String("operation", op),
		slog.String("role", string(p.Subject)),
		slog.String("domain", string(p.Domain)),
		slog.String("resource", string(p.Object)),
		slog.String("action", string(p.Action)),
		slog.String("effect", string(p.Effect)),
		slog.Bool("changed", changed),
	)
}

func (a *AuditedAuthorization) Raw() *casbin.DistributedEnforcer {
	return a.inner.Raw()
}
