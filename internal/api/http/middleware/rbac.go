package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/playcare_backend/pkg/authorize"
)

// RequirePermission checks the caller's role, and any roles granted to the
// user directly, against the policy for resource and action.
func RequirePermission(auth authorize.IAuthorization, resource authorize.Resource, action authorize.Action) fiber.Handler {
	return func(c fiber.Ctx) error {
		allowed, err := authorize.Can(c.Context(), auth, resource, action)
		if err != nil {
			if errors.Is(err, authorize.ErrNoSubjectInContext) {
				return fiber.ErrUnauthorized
			}
			return err
		}
		if !allowed {
			return fiber.ErrForbidden
		}
		return c.Next()
	}
}
