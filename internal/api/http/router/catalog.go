package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/playcare_backend/internal/api/http/handler"
	"github.com/Alijeyrad/playcare_backend/pkg/authorize"
)

func (r *Router) registerCatalogRoutes(
	api fiber.Router,
	h *handler.CatalogHandler,
	requirePerm func(authorize.Resource, authorize.Action) fiber.Handler,
) {
	games := api.Group("/games", requirePerm(authorize.ResourceCatalog, authorize.ActionRead))
	games.Get("/", h.List)
	games.Get("/:name", h.Get)
}
