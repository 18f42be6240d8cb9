package handler

import (
	"fmt"

	"github.com/arturoeanton/supabase-guard/internal/domain"
	"github.com/arturoeanton/supabase-guard/internal/middleware"
	"github.com/arturoeanton/supabase-guard/internal/port"
	"github.com/arturoeanton/supabase-guard/internal/service"
	"github.com/gofiber/fiber/v3"
)

// CheckHandler handles check and remediation endpoints.
type CheckHandler struct {
	checks *service.CheckService
}

// NewCheckHandler creates a new check handler.
func NewCheckHandler(checks *service.CheckService) *CheckHandler {
	return &CheckHandler{checks: checks}
}

// Register sets up check routes.
func (h *CheckHandler) Register(router fiber.Router) {
	router.Get("/checks", h.ListChecks)

	p := router.Group("/projects/:ref/checks")
	p.Post("/", h.RunAll)
	p.Post("/:type", h.Run)
	p.Post("/:type/remediations", h.Remediate)
}

// ListChecks returns the available checks with their descriptions.
func (h *CheckHandler) ListChecks(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"checks": h.checks.Describe()})
}

// RunAll evaluates every check against the project.
func (h *CheckHandler) RunAll(c fiber.Ctx) error {
	outcomes, err := h.checks.RunAll(c.Context(), middleware.GetCredential(c), c.Params("ref"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"results": outcomes})
}

// Run evaluates one check against the project.
func (h *CheckHandler) Run(c fiber.Ctx) error {
	t, err := parseType(c.Params("type"))
	if err != nil {
		return respondError(c, err)
	}

	report, err := h.checks.Run(c.Context(), middleware.GetCredential(c), c.Params("ref"), t)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

// Remediate applies a fix to one entity and returns the refreshed report.
func (h *CheckHandler) Remediate(c fiber.Ctx) error {
	t, err := parseType(c.Params("type"))
	if err != nil {
		return respondError(c, err)
	}

	var body struct {
		Table  string `json:"table"`
		Entity string `json:"entity"`
		Action string `json:"action"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return respondError(c, port.InvalidArgument("invalid request body"))
	}
	entity := body.Entity
	if entity == "" {
		entity = body.Table
	}

	report, err := h.checks.Remediate(c.Context(), middleware.GetCredential(c), c.Params("ref"), t, entity, body.Action)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

func parseType(raw string) (domain.CheckType, error) {
	t, err := domain.ParseCheckType(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", port.ErrCheckNotFound, err)
	}
	return t, nil
}
