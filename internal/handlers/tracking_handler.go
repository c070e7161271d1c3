package handlers

import (
	"github.com/dpppa-bjm/pengaduan/internal/dto"
	"github.com/dpppa-bjm/pengaduan/internal/services"
	"github.com/gofiber/fiber/v2"
)

// TrackingHandler serves the public token lookup. It needs no session.
type TrackingHandler struct {
	tracking *services.TrackingService
}

func NewTrackingHandler(tracking *services.TrackingService) *TrackingHandler {
	return &TrackingHandler{tracking: tracking}
}

func (h *TrackingHandler) Track(c *fiber.Ctx) error {
	r, err := h.tracking.Lookup(c.UserContext(), c.Params("token"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(dto.NewReportResponse(r))
}
