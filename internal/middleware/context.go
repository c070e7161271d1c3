package middleware

import (
	"errors"

	"github.com/dpppa-bjm/pengaduan/internal/identity"
	"github.com/gofiber/fiber/v2"
)

const (
	principalKey = "principal"
	userKey      = "resolved_user"
)

// GetPrincipal returns the principal stored by JWTProtected.
func GetPrincipal(c *fiber.Ctx) (identity.Principal, error) {
	p, ok := c.Locals(principalKey).(identity.Principal)
	if !ok {
		return identity.Principal{}, errors.New("no principal in context")
	}
	return p, nil
}

// GetUser returns the user stored by ResolveUser.
func GetUser(c *fiber.Ctx) (identity.User, error) {
	u, ok := c.Locals(userKey).(identity.User)
	if !ok {
		return identity.User{}, errors.New("no resolved user in context")
	}
	return u, nil
}
