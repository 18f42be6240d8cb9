package handler

import (
	"errors"
	"log/slog"

	"github.com/arturoeanton/supabase-guard/internal/port"
	"github.com/arturoeanton/supabase-guard/pkg/config"
	"github.com/gofiber/fiber/v3"
)

// errorKind maps an error to its HTTP status and kind label.
func errorKind(err error) (int, string) {
	var missing *config.MissingError
	switch {
	case errors.Is(err, port.ErrInvalidArgument):
		return fiber.StatusBadRequest, "InvalidArgument"
	case errors.Is(err, port.ErrRemediationUnsupported):
		return fiber.StatusBadRequest, "RemediationUnsupported"
	case errors.Is(err, port.ErrUnauthenticated):
		return fiber.StatusUnauthorized, "Unauthenticated"
	case errors.Is(err, port.ErrAuthorizationMismatch):
		return fiber.StatusForbidden, "AuthorizationMismatch"
	case errors.Is(err, port.ErrCheckNotFound):
		return fiber.StatusNotFound, "CheckNotFound"
	case errors.Is(err, port.ErrRemoteQueryFailed):
		return fiber.StatusBadGateway, "RemoteQueryFailed"
	case errors.Is(err, port.ErrTokenExchangeFailed):
		return fiber.StatusInternalServerError, "TokenExchangeFailed"
	case errors.Is(err, port.ErrCorruptLogStore):
		return fiber.StatusInternalServerError, "CorruptLogStore"
	case errors.As(err, &missing):
		return fiber.StatusInternalServerError, "MissingConfiguration"
	}
	return fiber.StatusInternalServerError, "Internal"
}

// respondError writes the JSON error body. Remote payloads are passed
// through in detail.
func respondError(c fiber.Ctx, err error) error {
	status, kind := errorKind(err)
	body := fiber.Map{"error": err.Error(), "kind": kind}

	var rq *port.RemoteQueryError
	var te *port.TokenExchangeError
	switch {
	case errors.As(err, &rq):
		body["detail"] = rq.Message
		if rq.Body != "" {
			body["detail"] = rq.Body
		}
	case errors.As(err, &te):
		body["detail"] = te.Body
	}

	if status >= fiber.StatusInternalServerError {
		slog.Error("request error", "path", c.Path(), "kind", kind, "error", err)
	}
	return c.Status(status).JSON(body)
}
