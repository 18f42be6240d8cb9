package handler

import (
	"fmt"

	"github.com/arturoeanton/supabase-guard/internal/domain"
	"github.com/arturoeanton/supabase-guard/internal/service"
	"github.com/gofiber/fiber/v3"
)

// AuditHandler handles audit log endpoints.
type AuditHandler struct {
	checks *service.CheckService
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(checks *service.CheckService) *AuditHandler {
	return &AuditHandler{checks: checks}
}

// Register sets up audit routes.
func (h *AuditHandler) Register(router fiber.Router) {
	logs := router.Group("/projects/:ref/logs")
	logs.Get("/", h.ListLogs)
	logs.Get("/download", h.Download)
}

// ListLogs returns the project's audit log with optional type filtering.
func (h *AuditHandler) ListLogs(c fiber.Ctx) error {
	filter, err := typeFilter(c.Query("type"))
	if err != nil {
		return respondError(c, err)
	}

	logs, err := h.checks.Logs(c.Context(), c.Params("ref"), filter)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"logs":  logs,
		"count": len(logs),
	})
}

// Download returns the audit log as a plain-text attachment.
func (h *AuditHandler) Download(c fiber.Ctx) error {
	filter, err := typeFilter(c.Query("type"))
	if err != nil {
		return respondError(c, err)
	}

	ref := c.Params("ref")
	logs, err := h.checks.Logs(c.Context(), ref, filter)
	if err != nil {
		return respondError(c, err)
	}

	name := "logs"
	if filter != "" {
		name = string(filter) + "-logs"
	}
	c.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s-%s.txt"`, ref, name))
	return c.SendString(service.FormatLogs(logs))
}

func typeFilter(raw string) (domain.CheckType, error) {
	if raw == "" {
		return "", nil
	}
	return parseType(raw)
}
