package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/playcare_backend/internal/repo"
	"github.com/Alijeyrad/playcare_backend/internal/service/session"
	"github.com/Alijeyrad/playcare_backend/pkg/reqctx"
)

type SessionHandler struct {
	svc session.Service
}

func NewSessionHandler(svc session.Service) *SessionHandler {
	return &SessionHandler{svc: svc}
}

// POST /sessions
func (h *SessionHandler) Create(c fiber.Ctx) error {
	var body struct {
		PatientID    string `json:"patientId"`
		InstructorID string `json:"instructorId"`
		GameName     string `json:"gameName"`
	}
	if err := c.Bind().Body(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	// instructors start sessions for themselves
	if body.InstructorID == "" {
		body.InstructorID = reqctx.ActorID(c.Context())
	}

	s, err := h.svc.Create(c.Context(), session.CreateRequest{
		PatientID:    body.PatientID,
		InstructorID: body.InstructorID,
		GameName:     body.GameName,
	})
	if err != nil {
		return mapError(c, err)
	}
	return created(c, s)
}

// GET /sessions?patientId=&userId=&userType=&status=
func (h *SessionHandler) List(c fiber.Ctx) error {
	var q struct {
		PatientID string `query:"patientId"`
		UserID    string `query:"userId"`
		UserType  string `query:"userType"`
		Status    string `query:"status"`
	}
	if err := c.Bind().Query(&q); err != nil {
		return badRequest(c, "invalid query")
	}

	out, err := h.svc.List(c.Context(), session.ListFilter{
		PatientID: q.PatientID,
		UserID:    q.UserID,
		UserType:  session.UserType(q.UserType),
		Status:    repo.SessionStatus(q.Status),
	})
	if err != nil {
		return mapError(c, err)
	}
	return ok(c, out)
}

// GET /patients/:id/sessions/active
func (h *SessionHandler) ListActive(c fiber.Ctx) error {
	out, err := h.svc.ListActive(c.Context(), c.Params("id"))
	if err != nil {
		return mapError(c, err)
	}
	return ok(c, out)
}

// GET /sessions/:token
func (h *SessionHandler) Get(c fiber.Ctx) error {
	s, err := h.svc.Get(c.Context(), c.Params("token"))
	if err != nil {
		return mapError(c, err)
	}
	return ok(c, s)
}

// POST /sessions/:token/review
func (h *SessionHandler) Review(c fiber.Ctx) error {
	var body struct {
		Rating   int            `json:"rating"`
		Review   string         `json:"review"`
		GameData *repo.GameData `json:"gameData"`
	}
	if err := c.Bind().Body(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	s, err := h.svc.AttachReview(c.Context(), session.ReviewRequest{
		SessionID: c.Params("token"),
		Review: session.Review{
			Rating:   body.Rating,
			Text:     body.Review,
			GameData: body.GameData,
		},
	})
	if err != nil {
		return mapError(c, err)
	}
	return ok(c, s)
}

// POST /sessions/:token/close
func (h *SessionHandler) Close(c fiber.Ctx) error {
	s, err := h.svc.Close(c.Context(), c.Params("token"))
	if err != nil {
		return mapError(c, err)
	}
	return ok(c, s)
}

// GET /therapists/:id/stats
func (h *SessionHandler) TherapistStats(c fiber.Ctx) error {
	st, err := h.svc.TherapistStats(c.Context(), c.Params("id"))
	if err != nil {
		return mapError(c, err)
	}
	return ok(c, st)
}
