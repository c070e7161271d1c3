package handlers

import (
	"github.com/dpppa-bjm/pengaduan/internal/dto"
	"github.com/dpppa-bjm/pengaduan/internal/middleware"
	"github.com/dpppa-bjm/pengaduan/internal/services"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	resp, err := h.authService.Register(c.UserContext(), &req)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	resp, err := h.authService.Login(c.UserContext(), &req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(resp)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	resp, err := h.authService.Refresh(c.UserContext(), &req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(resp)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var req dto.LogoutRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := h.authService.Logout(c.UserContext(), &req); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Logged out successfully"})
}

// Me returns the resolved user and which interface the client should show.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	u, err := middleware.GetUser(c)
	if err != nil {
		return fail(c, services.ErrInvalidToken)
	}
	iface := "citizen"
	if u.IsOfficer() {
		iface = "officer"
	}
	return c.JSON(dto.MeResponse{User: u, Interface: iface})
}
