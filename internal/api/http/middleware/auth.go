package middleware

import (
	"log/slog"

	"github.com/gofiber/fiber/v3"

	pasetotoken "github.com/Alijeyrad/playcare_backend/pkg/paseto"
	"github.com/Alijeyrad/playcare_backend/pkg/reqctx"
)

// AuthRequired validates a Bearer PASETO access token issued by the auth
// service. On success the claims go to c.Locals(pasetotoken.CtxKeyClaims)
// and the caller is attached to the request context as a reqctx.Actor.
func AuthRequired(mgr *pasetotoken.Manager) fiber.Handler {
	return func(c fiber.Ctx) error {
		tok, ok := pasetotoken.BearerToken(c)
		if !ok {
			return fiber.ErrUnauthorized
		}

		claims, err := mgr.Verify(tok)
		if err != nil {
			slog.DebugContext(c.Context(), "token rejected", "error", err)
			return fiber.ErrUnauthorized
		}

		c.Locals(pasetotoken.CtxKeyClaims, claims)
		c.SetContext(reqctx.WithActor(c.Context(), claims.Actor()))
		return c.Next()
	}
}
