package handlers

import (
	"time"

	"github.com/dpppa-bjm/pengaduan/internal/dto"
	"github.com/dpppa-bjm/pengaduan/internal/identity"
	"github.com/dpppa-bjm/pengaduan/internal/middleware"
	"github.com/dpppa-bjm/pengaduan/internal/models"
	"github.com/dpppa-bjm/pengaduan/internal/services"
	"github.com/dpppa-bjm/pengaduan/internal/views"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ReportHandler struct {
	reports  *services.ReportService
	location *time.Location
}

func NewReportHandler(reports *services.ReportService, location *time.Location) *ReportHandler {
	return &ReportHandler{reports: reports, location: location}
}

// Submit files a report for the signed-in citizen and returns its tracking
// token.
func (h *ReportHandler) Submit(c *fiber.Ctx) error {
	u, err := middleware.GetUser(c)
	if err != nil {
		return fail(c, services.ErrInvalidToken)
	}
	var req dto.SubmitReportRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	r, err := h.reports.Submit(c.UserContext(), u, services.Draft{
		Title:        req.Title,
		Category:     req.Category,
		Location:     req.Location,
		Chronology:   req.Chronology,
		IncidentDate: req.IncidentDate,
	})
	if err != nil {
		return fail(c, err)
	}

	token := r.ID.String()
	return c.Status(fiber.StatusCreated).JSON(dto.SubmitReportResponse{
		Token:   token,
		Message: "Laporan berhasil dikirim! Token pelacakan: " + token,
		Report:  dto.NewReportResponse(r),
	})
}

// Mine returns the citizen dashboard for the signed-in user.
func (h *ReportHandler) Mine(c *fiber.Ctx) error {
	u, err := middleware.GetUser(c)
	if err != nil {
		return fail(c, services.ErrInvalidToken)
	}
	rs, err := h.reports.Owned(c.UserContext(), u)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(dto.NewCitizenDashboard(views.BuildCitizen(u.ID, rs)))
}

// List returns the officer dashboard. Counts cover every report; the table
// honours the query filters.
func (h *ReportHandler) List(c *fiber.Ctx) error {
	u, err := middleware.GetUser(c)
	if err != nil {
		return fail(c, services.ErrInvalidToken)
	}
	var form dto.OfficerFilterForm
	if err := c.QueryParser(&form); err != nil {
		return badRequest(c, "Invalid query")
	}
	f, err := views.ParseFilter(form.Search, form.Status, form.Year, form.Month, form.Date)
	if err != nil {
		return badRequest(c, err.Error())
	}

	rs, err := h.reports.All(c.UserContext(), u)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(dto.NewOfficerDashboard(views.BuildOfficer(rs, f, h.location)))
}

func (h *ReportHandler) UpdateStatus(c *fiber.Ctx) error {
	u, id, err := h.target(c)
	if err != nil {
		return fail(c, err)
	}
	var req dto.TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := h.reports.Transition(c.UserContext(), u, id, models.Status(req.Status), req.Confirm); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Status berhasil diperbarui"})
}

func (h *ReportHandler) Respond(c *fiber.Ctx) error {
	u, id, err := h.target(c)
	if err != nil {
		return fail(c, err)
	}
	var req dto.RespondRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := h.reports.Respond(c.UserContext(), u, id, req.Text); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Tanggapan berhasil dikirim"})
}

func (h *ReportHandler) Delete(c *fiber.Ctx) error {
	u, id, err := h.target(c)
	if err != nil {
		return fail(c, err)
	}
	if err := h.reports.Delete(c.UserContext(), u, id, c.QueryBool("confirm")); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Laporan dihapus"})
}

// target reads the acting user and the :id report parameter. An id that is
// not a UUID cannot name a report.
func (h *ReportHandler) target(c *fiber.Ctx) (identity.User, uuid.UUID, error) {
	u, err := middleware.GetUser(c)
	if err != nil {
		return u, uuid.Nil, services.ErrInvalidToken
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return u, uuid.Nil, services.ErrReportNotFound
	}
	return u, id, nil
}
