package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/playcare_backend/internal/service/catalog"
)

type CatalogHandler struct {
	svc catalog.Service
}

func NewCatalogHandler(svc catalog.Service) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

// GET /games
func (h *CatalogHandler) List(c fiber.Ctx) error {
	return ok(c, h.svc.List())
}

// GET /games/:name
func (h *CatalogHandler) Get(c fiber.Ctx) error {
	g, err := h.svc.Get(c.Params("name"))
	if err != nil {
		return mapError(c, err)
	}
	return ok(c, g)
}
