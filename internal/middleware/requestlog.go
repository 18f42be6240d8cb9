package middleware

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"
)

// RequestLog writes one structured line per request. Cookies, query strings
// and bodies are never logged.
func RequestLog() fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()

		// Capture before the handler runs; Fiber reuses context objects.
		method := c.Method()
		path := c.Path()
		ip := c.IP()

		err := c.Next()

		attrs := []any{
			"method", method,
			"path", path,
			"status", c.Response().StatusCode(),
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", ip,
			"authenticated", GetCredential(c) != nil,
		}
		if ref := c.Params("ref"); ref != "" {
			attrs = append(attrs, "project", ref)
		}
		if err != nil {
			attrs = append(attrs, "error", err)
			slog.Warn("request failed", attrs...)
			return err
		}
		slog.Info("request", attrs...)
		return nil
	}
}
