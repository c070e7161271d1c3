package handlers

import (
	"time"

	"github.com/dpppa-bjm/pengaduan/internal/dto"
	"github.com/dpppa-bjm/pengaduan/internal/models"
	"github.com/dpppa-bjm/pengaduan/internal/store"
	"github.com/gofiber/fiber/v2"
)

type HealthHandler struct {
	ping   func() error
	broker *store.Broker
}

func NewHealthHandler(ping func() error, broker *store.Broker) *HealthHandler {
	return &HealthHandler{ping: ping, broker: broker}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	dbStatus := "ok"
	if err := h.ping(); err != nil {
		dbStatus = "unhealthy: " + err.Error()
	}

	return c.JSON(dto.HealthResponse{
		Status:      "ok",
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		DB:          dbStatus,
		Subscribers: h.broker.Subscribers(),
	})
}

// Meta lists the values the submit and filter forms offer.
func (h *HealthHandler) Meta(c *fiber.Ctx) error {
	return c.JSON(dto.MetaResponse{Categories: models.Categories, Statuses: models.Statuses})
}
