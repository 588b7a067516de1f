package api

import (
	"github.com/couchcryptid/storm-site-risk/internal/domain"
	"github.com/gofiber/fiber/v2"
)

// Handler contains all HTTP handlers.
type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// HealthCheck returns service liveness.
func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"service": "storm-site-risk",
	})
}

func (h *Handler) ListSites(c *fiber.Ctx) error {
	sites, err := h.svc.ListSites(c.UserContext())
	if err != nil {
		return err
	}
	return ok(c, sites)
}

func (h *Handler) GetSite(c *fiber.Ctx) error {
	site, err := h.svc.GetSite(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, site)
}

// CreateSite accepts a site without an ID; the store assigns one.
func (h *Handler) CreateSite(c *fiber.Ctx) error {
	var site domain.Site
	if err := c.BodyParser(&site); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	site.ID = ""

	created, err := h.svc.CreateSite(c.UserContext(), site)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    created,
	})
}

func (h *Handler) UpdateSite(c *fiber.Ctx) error {
	var update domain.SiteUpdate
	if err := c.BodyParser(&update); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	updated, err := h.svc.UpdateSite(c.UserContext(), c.Params("id"), update)
	if err != nil {
		return err
	}
	return ok(c, updated)
}

func (h *Handler) DeleteSite(c *fiber.Ctx) error {
	if err := h.svc.DeleteSite(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) SiteAlerts(c *fiber.Ctx) error {
	assoc, err := h.svc.SiteAlerts(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, assoc)
}

func (h *Handler) SiteRisk(c *fiber.Ctx) error {
	report, err := h.svc.SiteRisk(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, report)
}

// SiteSnapshots returns stored history; ?limit= caps the count.
func (h *Handler) SiteSnapshots(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)
	if limit < 0 || limit > 1000 {
		return fiber.NewError(fiber.StatusBadRequest, "limit must be between 1 and 1000")
	}
	snaps, err := h.svc.SiteSnapshots(c.UserContext(), c.Params("id"), limit)
	if err != nil {
		return err
	}
	return ok(c, snaps)
}

func (h *Handler) AllRisks(c *fiber.Ctx) error {
	reports, err := h.svc.AllRisks(c.UserContext())
	if err != nil {
		return err
	}
	return ok(c, reports)
}

func ok(c *fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}
