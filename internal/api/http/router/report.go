package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/playcare_backend/internal/api/http/handler"
	"github.com/Alijeyrad/playcare_backend/pkg/authorize"
)

func (r *Router) registerReportRoutes(
	api fiber.Router,
	h *handler.ReportHandler,
	requirePerm func(authorize.Resource, authorize.Action) fiber.Handler,
) {
	reports := api.Group("/reports")
	reports.Post("/draft", requirePerm(authorize.ResourceDraft, authorize.ActionCreate), h.Draft)
	reports.Get("/", requirePerm(authorize.ResourceReport, authorize.ActionList), h.List)
	reports.Post("/", requirePerm(authorize.ResourceReport, authorize.ActionCreate), h.Finalize)

	rep := reports.Group("/:id")
	rep.Get("/", requirePerm(authorize.ResourceReport, authorize.ActionRead), h.Get)
	rep.Delete("/", requirePerm(authorize.ResourceReport, authorize.ActionDelete), h.Delete)

	// Documents
	rep.Post("/export", requirePerm(authorize.ResourceDocument, authorize.ActionExport), h.Export)
	rep.Get("/export", requirePerm(authorize.ResourceDocument, authorize.ActionRead), h.ExportStatus)
	rep.Get("/download", requirePerm(authorize.ResourceDocument, authorize.ActionRead), h.Download)
}
