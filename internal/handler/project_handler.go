package handler

import (
	"github.com/arturoeanton/supabase-guard/internal/middleware"
	"github.com/arturoeanton/supabase-guard/internal/service"
	"github.com/gofiber/fiber/v3"
)

// ProjectHandler handles project and table listing.
type ProjectHandler struct {
	projects *service.ProjectService
	checks   *service.CheckService
}

// NewProjectHandler creates a new project handler.
func NewProjectHandler(projects *service.ProjectService, checks *service.CheckService) *ProjectHandler {
	return &ProjectHandler{projects: projects, checks: checks}
}

// Register sets up project routes.
func (h *ProjectHandler) Register(router fiber.Router) {
	router.Get("/projects", h.List)
	router.Get("/projects/:ref/tables", h.Tables)
}

// List returns the account's projects.
func (h *ProjectHandler) List(c fiber.Ctx) error {
	projects, err := h.projects.List(c.Context(), middleware.GetCredential(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"projects": projects, "count": len(projects)})
}

// Tables returns the project's public tables.
func (h *ProjectHandler) Tables(c fiber.Ctx) error {
	tables, err := h.checks.Tables(c.Context(), middleware.GetCredential(c), c.Params("ref"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"tables": tables, "count": len(tables)})
}
