package handler

import (
	"fmt"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/playcare_backend/internal/service/export"
	"github.com/Alijeyrad/playcare_backend/internal/service/report"
	"github.com/Alijeyrad/playcare_backend/pkg/reqctx"
	"github.com/Alijeyrad/playcare_backend/pkg/s3"
)

type ReportHandler struct {
	reports report.Service
	exports export.Service
}

func NewReportHandler(reports report.Service, exports export.Service) *ReportHandler {
	return &ReportHandler{reports: reports, exports: exports}
}

// POST /reports/draft
func (h *ReportHandler) Draft(c fiber.Ctx) error {
	var body struct {
		PatientID  string   `json:"patientId"`
		SessionIDs []string `json:"sessionIds"`
		Notes      string   `json:"notes"`
	}
	if err := c.Bind().Body(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	d, err := h.reports.ComposeDraft(c.Context(), report.DraftRequest{
		PatientID:  body.PatientID,
		SessionIDs: body.SessionIDs,
		Notes:      body.Notes,
	})
	if err != nil {
		return mapError(c, err)
	}
	return ok(c, d)
}

// POST /reports
func (h *ReportHandler) Finalize(c fiber.Ctx) error {
	var body struct {
		Title           string        `json:"title"`
		Summary         string        `json:"summary"`
		Progress        string        `json:"progress"`
		Recommendations string        `json:"recommendations"`
		SessionIDs      []string      `json:"sessionIds"`
		PatientID       string        `json:"patientId"`
		AIDraft         *report.Draft `json:"aiGenerated"`
	}
	if err := c.Bind().Body(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	r, err := h.reports.Finalize(c.Context(), report.FinalizeRequest{
		Title:           body.Title,
		Summary:         body.Summary,
		Progress:        body.Progress,
		Recommendations: body.Recommendations,
		SessionIDs:      body.SessionIDs,
		PatientID:       body.PatientID,
		TherapistID:     reqctx.ActorID(c.Context()),
		AIDraft:         body.AIDraft,
	})
	if err != nil {
		return mapError(c, err)
	}
	return created(c, r)
}

// GET /reports?therapistId=
func (h *ReportHandler) List(c fiber.Ctx) error {
	therapistID := c.Query("therapistId")
	if therapistID == "" {
		therapistID = reqctx.ActorID(c.Context())
	}
	out, err := h.reports.List(c.Context(), therapistID)
	if err != nil {
		return mapError(c, err)
	}
	return ok(c, out)
}

// GET /reports/:id
func (h *ReportHandler) Get(c fiber.Ctx) error {
	r, err := h.reports.Get(c.Context(), c.Params("id"))
	if err != nil {
		return mapError(c, err)
	}
	return ok(c, r)
}

// DELETE /reports/:id
func (h *ReportHandler) Delete(c fiber.Ctx) error {
	if err := h.reports.Delete(c.Context(), c.Params("id")); err != nil {
		return mapError(c, err)
	}
	return noContent(c)
}

// POST /reports/:id/export
//
// Small reports come back as the PDF itself. Large ones answer 202 with the
// pending export; the document can be fetched from /download once ready.
func (h *ReportHandler) Export(c fiber.Ctx) error {
	res, err := h.exports.Request(c.Context(), c.Params("id"))
	if err != nil {
		return mapError(c, err)
	}
	if !res.Inline {
		return accepted(c, res.Export)
	}

	c.Set(fiber.HeaderContentType, s3.PDFContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", res.Export.FileName))
	return c.Send(res.Document)
}

// GET /reports/:id/export
func (h *ReportHandler) ExportStatus(c fiber.Ctx) error {
	exp, err := h.exports.Status(c.Context(), c.Params("id"))
	if err != nil {
		return mapError(c, err)
	}
	return ok(c, exp)
}

// GET /reports/:id/download
func (h *ReportHandler) Download(c fiber.Ctx) error {
	link, err := h.exports.Download(c.Context(), c.Params("id"))
	if err != nil {
		return mapError(c, err)
	}
	if c.Query("redirect") == "true" {
		return c.Redirect().To(link.URL)
	}
	return ok(c, link)
}
