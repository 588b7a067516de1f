package api

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/couchcryptid/storm-site-risk/internal/domain"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Service is the dashboard-facing application layer.
type Service interface {
	ListSites(ctx context.Context) ([]domain.Site, error)
	GetSite(ctx context.Context, id string) (domain.Site, error)
	CreateSite(ctx context.Context, site domain.Site) (domain.Site, error)
	UpdateSite(ctx context.Context, id string, update domain.SiteUpdate) (domain.Site, error)
	DeleteSite(ctx context.Context, id string) error
	SiteAlerts(ctx context.Context, id string) (domain.SiteAlertAssociation, error)
	SiteRisk(ctx context.Context, id string) (domain.SiteReport, error)
	AllRisks(ctx context.Context) ([]domain.SiteReport, error)
	SiteSnapshots(ctx context.Context, id string, limit int) ([]domain.WeatherSnapshot, error)
}

// NewApp builds the dashboard API.
func NewApp(svc Service, logger *slog.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "storm-site-risk",
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(logger),
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))
	app.Use(requestLogger(logger))

	SetupRoutes(app, NewHandler(svc))
	return app
}

// SetupRoutes configures all HTTP routes.
func SetupRoutes(app *fiber.App, h *Handler) {
	app.Get("/health", h.HealthCheck)

	api := app.Group("/api/v1")
	{
		api.Get("/sites", h.ListSites)
		api.Post("/sites", h.CreateSite)
		api.Get("/sites/:id", h.GetSite)
		api.Patch("/sites/:id", h.UpdateSite)
		api.Delete("/sites/:id", h.DeleteSite)
		api.Get("/sites/:id/alerts", h.SiteAlerts)
		api.Get("/sites/:id/risk", h.SiteRisk)
		api.Get("/sites/:id/snapshots", h.SiteSnapshots)

		api.Get("/risk", h.AllRisks)
	}
}

// errorHandler maps domain errors to status codes. Internal errors are
// logged and reported without detail.
func errorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "internal server error"

		var fe *fiber.Error
		switch {
		case errors.As(err, &fe):
			code = fe.Code
			message = fe.Message
		case errors.Is(err, domain.ErrInvalidSite):
			code = fiber.StatusBadRequest
			message = err.Error()
		case errors.Is(err, domain.ErrSiteNotFound):
			code = fiber.StatusNotFound
			message = err.Error()
		default:
			logger.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
		}

		return c.Status(code).JSON(fiber.Map{
			"success": false,
			"error":   message,
		})
	}
}

func requestLogger(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		logger.Debug("http request",
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"latency", time.Since(start),
		)
		return err
	}
}
