package middleware

import (
	"github.com/dpppa-bjm/pengaduan/internal/dto"
	"github.com/dpppa-bjm/pengaduan/internal/identity"
	"github.com/dpppa-bjm/pengaduan/internal/models"
	"github.com/gofiber/fiber/v2"
)

// ResolveUser resolves the principal into an application user. It runs
// after JWTProtected and never fails on a store error: the resolver
// degrades to a citizen instead.
func ResolveUser(resolver *identity.Resolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := GetPrincipal(c)
		if err != nil {
			return unauthorized(c)
		}
		c.Locals(userKey, resolver.Resolve(c.UserContext(), p))
		return c.Next()
	}
}

// RequireRole lets only users with the given role through.
func RequireRole(role models.Role) fiber.Handler {
	message := "Citizen access required"
	if role == models.RoleOfficer {
		message = "Officer access required"
	}
	return func(c *fiber.Ctx) error {
		u, err := GetUser(c)
		if err != nil {
			return unauthorized(c)
		}
		if u.Role != role {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: message,
			})
		}
		return c.Next()
	}
}
