package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/playcare_backend/internal/service/gameconfig"
)

type GameConfigHandler struct {
	svc gameconfig.Service
}

func NewGameConfigHandler(svc gameconfig.Service) *GameConfigHandler {
	return &GameConfigHandler{svc: svc}
}

// GET /patients/:id/configs
func (h *GameConfigHandler) List(c fiber.Ctx) error {
	out, err := h.svc.ListForPatient(c.Context(), c.Params("id"))
	if err != nil {
		return mapError(c, err)
	}
	return ok(c, out)
}

// GET /patients/:id/configs/:game
func (h *GameConfigHandler) Get(c fiber.Ctx) error {
	eff, err := h.svc.Get(c.Context(), c.Params("id"), c.Params("game"))
	if err != nil {
		return mapError(c, err)
	}
	return ok(c, eff)
}

// POST /patients/:id/configs/:game/open
//
// Opening the editor stores the resolved defaults the first time.
func (h *GameConfigHandler) Open(c fiber.Ctx) error {
	eff, err := h.svc.Open(c.Context(), c.Params("id"), c.Params("game"))
	if err != nil {
		return mapError(c, err)
	}
	return ok(c, eff)
}

// PUT /patients/:id/configs/:game
func (h *GameConfigHandler) Save(c fiber.Ctx) error {
	var body struct {
		Values          map[string]any `json:"values"`
		ExpectedVersion int64          `json:"expectedVersion"`
	}
	if err := c.Bind().Body(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	eff, err := h.svc.Save(c.Context(), gameconfig.SaveRequest{
		PatientID:       c.Params("id"),
		GameName:        c.Params("game"),
		Values:          body.Values,
		ExpectedVersion: body.ExpectedVersion,
	})
	if err != nil {
		return mapError(c, err)
	}
	return ok(c, eff)
}

// PUT /patients/:id/configs/:game/enabled
func (h *GameConfigHandler) SetEnabled(c fiber.Ctx) error {
	var body struct {
		Enabled         *bool `json:"enabled"`
		ExpectedVersion int64 `json:"expectedVersion"`
	}
	if err := c.Bind().Body(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.Enabled == nil {
		return badRequest(c, "enabled is required")
	}

	eff, err := h.svc.SetEnabled(c.Context(), c.Params("id"), c.Params("game"), *body.Enabled, body.ExpectedVersion)
	if err != nil {
		return mapError(c, err)
	}
	return ok(c, eff)
}
