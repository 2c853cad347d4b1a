package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/playcare_backend/internal/api/http/handler"
	"github.com/Alijeyrad/playcare_backend/pkg/authorize"
)

func (r *Router) registerPatientRoutes(
	api fiber.Router,
	ph *handler.PatientHandler,
	ch *handler.GameConfigHandler,
	sh *handler.SessionHandler,
	requirePerm func(authorize.Resource, authorize.Action) fiber.Handler,
) {
	patients := api.Group("/patients")

	patients.Get("/", requirePerm(authorize.ResourcePatient, authorize.ActionList), ph.List)
	patients.Post("/", requirePerm(authorize.ResourcePatient, authorize.ActionCreate), ph.Create)
	patients.Get("/code/:code", requirePerm(authorize.ResourcePatient, authorize.ActionRead), ph.GetByCode)

	p := patients.Group("/:id")
	p.Get("/", requirePerm(authorize.ResourcePatient, authorize.ActionRead), ph.Get)
	p.Get("/stats", requirePerm(authorize.ResourceStats, authorize.ActionRead), ph.Stats)
	p.Get("/sessions/active", requirePerm(authorize.ResourceSession, authorize.ActionRead), sh.ListActive)

	// Game configuration
	p.Get("/configs", requirePerm(authorize.ResourceGameConfig, authorize.ActionRead), ch.List)
	p.Get("/configs/:game", requirePerm(authorize.ResourceGameConfig, authorize.ActionRead), ch.Get)
	p.Post("/configs/:game/open", requirePerm(authorize.ResourceGameConfig, authorize.ActionUpdate), ch.Open)
	p.Put("/configs/:game", requirePerm(authorize.ResourceGameConfig, authorize.ActionUpdate), ch.Save)
	p.Put("/configs/:game/enabled", requirePerm(authorize.ResourceGameConfig, authorize.ActionUpdate), ch.SetEnabled)
}
