package routes

import (
	"time"

	"github.com/dpppa-bjm/pengaduan/internal/config"
	"github.com/dpppa-bjm/pengaduan/internal/handlers"
	"github.com/dpppa-bjm/pengaduan/internal/identity"
	"github.com/dpppa-bjm/pengaduan/internal/middleware"
	"github.com/dpppa-bjm/pengaduan/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	resolver *identity.Resolver,
	authHandler *handlers.AuthHandler,
	reportHandler *handlers.ReportHandler,
	trackingHandler *handlers.TrackingHandler,
	healthHandler *handlers.HealthHandler,
	sessionHandler *handlers.SessionHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(perIPLimiter(60))

	api.Get("/health", healthHandler.Check)
	api.Get("/meta", healthHandler.Meta)

	// Tracking is public and token-guessable, so it gets its own budget.
	api.Get("/track/:token", perIPLimiter(cfg.TrackRateLimit), trackingHandler.Track)

	// Auth-specific rate limit: 10 req/min per IP (stricter)
	auth := api.Group("/auth")
	auth.Use(perIPLimiter(10))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)
	auth.Post("/logout", middleware.JWTProtected(cfg), authHandler.Logout)

	signedIn := []fiber.Handler{middleware.JWTProtected(cfg), middleware.ResolveUser(resolver)}

	api.Get("/me", append(signedIn, authHandler.Me)...)

	citizen := api.Group("/reports", append(signedIn, middleware.RequireRole(models.RoleCitizen))...)
	citizen.Post("/", reportHandler.Submit)
	citizen.Get("/mine", reportHandler.Mine)

	officer := api.Group("/officer", append(signedIn, middleware.RequireRole(models.RoleOfficer))...)
	officer.Get("/reports", reportHandler.List)
	officer.Put("/reports/:id/status", reportHandler.UpdateStatus)
	officer.Post("/reports/:id/response", reportHandler.Respond)
	officer.Delete("/reports/:id", reportHandler.Delete)

	app.Get("/ws/session", sessionHandler.Upgrade, sessionHandler.Serve())
}

func perIPLimiter(max int) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               max,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	})
}
