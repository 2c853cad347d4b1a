package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/playcare_backend/internal/api/http/handler"
	"github.com/Alijeyrad/playcare_backend/pkg/authorize"
)

func (r *Router) registerSessionRoutes(
	api fiber.Router,
	h *handler.SessionHandler,
	requirePerm func(authorize.Resource, authorize.Action) fiber.Handler,
) {
	sessions := api.Group("/sessions")
	sessions.Get("/", requirePerm(authorize.ResourceSession, authorize.ActionList), h.List)
	sessions.Post("/", requirePerm(authorize.ResourceSession, authorize.ActionCreate), h.Create)
	sessions.Get("/:token", requirePerm(authorize.ResourceSession, authorize.ActionRead), h.Get)
	sessions.Post("/:token/review", requirePerm(authorize.ResourceSession, authorize.ActionReview), h.Review)
	sessions.Post("/:token/close", requirePerm(authorize.ResourceSession, authorize.ActionClose), h.Close)

	api.Get("/therapists/:id/stats", requirePerm(authorize.ResourceStats, authorize.ActionRead), h.TherapistStats)
}
