package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"

	"github.com/dpppa-bjm/pengaduan/internal/config"
	"github.com/dpppa-bjm/pengaduan/internal/database"
	"github.com/dpppa-bjm/pengaduan/internal/handlers"
	"github.com/dpppa-bjm/pengaduan/internal/identity"
	"github.com/dpppa-bjm/pengaduan/internal/logging"
	"github.com/dpppa-bjm/pengaduan/internal/middleware"
	"github.com/dpppa-bjm/pengaduan/internal/routes"
	"github.com/dpppa-bjm/pengaduan/internal/services"
	"github.com/dpppa-bjm/pengaduan/internal/store"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	cfg := config.Load()

	// Structured logging (JSON to stdout)
	logging.Setup(cfg.AppEnv)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.MigrateShared(); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// ERROR+ records are also batched into system_logs
	pgLogHandler := logging.NewPGHandler(database.DB)
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		logging.StdoutHandler(cfg.AppEnv),
		pgLogHandler,
	)))

	cleanupDone := make(chan struct{})
	logging.StartCleanup(database.DB, cfg.LogRetention, cleanupDone)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Report store and live change notices
	broker := store.NewBroker()
	reports := store.NewGormReportStore(database.DB, broker)
	profiles := store.NewGormProfileStore(database.DB)

	if cfg.RedisURL != "" {
		client, err := store.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			slog.Warn("redis unavailable, falling back to in-process change notices", "error", err)
		} else {
			relay := store.NewRedisRelay(client, broker)
			broker.SetPublisher(relay)
			go relay.Run(ctx)
			defer client.Close()
			slog.Info("redis change relay started")
		}
	}

	location := cfg.Location()
	resolver := identity.NewResolver(profiles, identity.Heuristic{
		Keywords: cfg.OfficerKeywords,
		Emails:   cfg.OfficerEmails,
	})

	// Services
	authService := services.NewAuthService(database.DB, cfg, profiles, resolver)
	reportService := services.NewReportService(reports, nil)
	trackingService := services.NewTrackingService(reports)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	reportHandler := handlers.NewReportHandler(reportService, location)
	trackingHandler := handlers.NewTrackingHandler(trackingService)
	healthHandler := handlers.NewHealthHandler(database.Ping, broker)
	sessionHandler := handlers.NewSessionHandler(authService, resolver, reports, location)

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	routes.Setup(app, cfg, resolver, authHandler, reportHandler, trackingHandler, healthHandler, sessionHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "timezone", location.String())
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	cancel()

	close(cleanupDone)
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if sqlDB, err := database.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
