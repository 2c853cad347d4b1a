package authorize

import (
	"context"
	"errors"

	"github.com/Alijeyrad/playcare_backend/pkg/reqctx"
)

var (
	ErrNoSubjectInContext = errors.New("no subject found in context")
)

// SubjectFromContext returns the authenticated user as a policy subject.
func SubjectFromContext(ctx context.Context) (GroupSubject, error) {
	a, ok := reqctx.ActorFromContext(ctx)
	if !ok {
		return "", ErrNoSubjectInContext
	}
	return GroupSubject(a.UserID), nil
}

// Can decides for the caller in ctx. The token's role is checked first, then
// any roles granted to the user directly.
func Can(ctx context.Context, auth IAuthorization, object Resource, action Action) (bool, error) {
	a, ok := reqctx.ActorFromContext(ctx)
	if !ok {
		return false, ErrNoSubjectInContext
	}

	if role, known := RoleFor(a.Role); known {
		allowed, err := auth.Enforce(ctx, GroupSubject(role), DomainSys, object, action)
		if err != nil || allowed {
			return allowed, err
		}
	}
	return auth.Enforce(ctx, GroupSubject(a.UserID), DomainSys, object, action)
}
