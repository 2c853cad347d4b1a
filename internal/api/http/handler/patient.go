package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/playcare_backend/internal/service/patient"
	"github.com/Alijeyrad/playcare_backend/pkg/reqctx"
)

type PatientHandler struct {
	svc patient.Service
}

func NewPatientHandler(svc patient.Service) *PatientHandler {
	return &PatientHandler{svc: svc}
}

// POST /patients
func (h *PatientHandler) Create(c fiber.Ctx) error {
	var body struct {
		Name        string `json:"name"`
		Email       string `json:"email"`
		Age         int    `json:"age"`
		Condition   string `json:"condition"`
		TherapistID string `json:"therapistId"`
	}
	if err := c.Bind().Body(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	p, err := h.svc.Create(c.Context(), patient.CreatePatientRequest{
		Name:        body.Name,
		Email:       body.Email,
		Age:         body.Age,
		Condition:   body.Condition,
		TherapistID: body.TherapistID,
	})
	if err != nil {
		return mapError(c, err)
	}
	return created(c, p)
}

// GET /patients?therapistId=
func (h *PatientHandler) List(c fiber.Ctx) error {
	therapistID := c.Query("therapistId")
	if therapistID == "" {
		therapistID = reqctx.ActorID(c.Context())
	}
	out, err := h.svc.ListByTherapist(c.Context(), therapistID)
	if err != nil {
		return mapError(c, err)
	}
	return ok(c, out)
}

// GET /patients/:id
func (h *PatientHandler) Get(c fiber.Ctx) error {
	p, err := h.svc.Get(c.Context(), c.Params("id"))
	if err != nil {
		return mapError(c, err)
	}
	return ok(c, p)
}

// GET /patients/code/:code
func (h *PatientHandler) GetByCode(c fiber.Ctx) error {
	p, err := h.svc.GetByCode(c.Context(), c.Params("code"))
	if err != nil {
		return mapError(c, err)
	}
	return ok(c, p)
}

// GET /patients/:id/stats
func (h *PatientHandler) Stats(c fiber.Ctx) error {
	st, err := h.svc.Stats(c.Context(), c.Params("id"))
	if err != nil {
		return mapError(c, err)
	}
	return ok(c, st)
}
