package handlers

import (
	"errors"
	"log/slog"

	"github.com/dpppa-bjm/pengaduan/internal/dto"
	"github.com/dpppa-bjm/pengaduan/internal/services"
	"github.com/gofiber/fiber/v2"
)

// statusFor maps a service error onto an HTTP status and the message shown
// to the user.
func statusFor(err error) (int, string) {
	var verr *services.ValidationError
	var serr *services.StoreError
	switch {
	case errors.As(err, &verr):
		return fiber.StatusBadRequest, verr.Error()
	case errors.Is(err, services.ErrWeakPassword):
		return fiber.StatusBadRequest, err.Error()
	case errors.Is(err, services.ErrInvalidCredentials), errors.Is(err, services.ErrInvalidToken):
		return fiber.StatusUnauthorized, err.Error()
	case errors.Is(err, services.ErrOfficerOnly):
		return fiber.StatusForbidden, err.Error()
	case errors.Is(err, services.ErrReportNotFound), errors.Is(err, services.ErrTokenNotFound):
		return fiber.StatusNotFound, err.Error()
	case errors.Is(err, services.ErrEmailTaken), errors.Is(err, services.ErrTransitionNotAllowed):
		return fiber.StatusConflict, err.Error()
	case errors.Is(err, services.ErrConfirmationRequired):
		return fiber.StatusPreconditionRequired, err.Error()
	case errors.As(err, &serr):
		return fiber.StatusBadGateway, serr.Error()
	default:
		return fiber.StatusInternalServerError, "Internal server error"
	}
}

func fail(c *fiber.Ctx, err error) error {
	code, message := statusFor(err)
	if code == fiber.StatusInternalServerError {
		slog.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
	}
	return c.Status(code).JSON(dto.ErrorResponse{Error: true, Message: message})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: message})
}
