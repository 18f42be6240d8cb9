package handler

import (
	"log/slog"

	"github.com/arturoeanton/supabase-guard/internal/adapter/session"
	"github.com/arturoeanton/supabase-guard/internal/service"
	"github.com/gofiber/fiber/v3"
)

// AuthHandler handles the Supabase authorization endpoints.
type AuthHandler struct {
	authService *service.AuthService
	configErr   error
	sessions    *session.CookieStore
	frontendURL string
}

// NewAuthHandler creates a new auth handler. A non-nil configErr is
// reported by every login attempt instead of starting the flow.
func NewAuthHandler(authService *service.AuthService, configErr error, sessions *session.CookieStore, frontendURL string) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		configErr:   configErr,
		sessions:    sessions,
		frontendURL: frontendURL,
	}
}

// Register sets up auth routes.
func (h *AuthHandler) Register(app *fiber.App) {
	auth := app.Group("/api/auth")
	auth.Get("/login", h.Login)
	auth.Get("/callback", h.Callback)
	auth.Post("/logout", h.Logout)

	app.Get("/api/check-token", h.CheckToken)
}

// Login stores fresh PKCE artifacts and redirects to the consent screen.
func (h *AuthHandler) Login(c fiber.Ctx) error {
	if h.configErr != nil {
		return respondError(c, h.configErr)
	}

	authURL, as := h.authService.Begin()
	h.sessions.PutAuthorization(c, as)

	return c.Redirect().Status(fiber.StatusFound).To(authURL)
}

// Callback validates the returned state, exchanges the code and stores
// the credential.
func (h *AuthHandler) Callback(c fiber.Ctx) error {
	if h.configErr != nil {
		return respondError(c, h.configErr)
	}

	code := c.Query("code")
	state := c.Query("state")
	verifier, storedState := h.sessions.TakeAuthorization(c)

	if code == "" || state == "" || verifier == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing code, state or verifier",
			"kind":  "InvalidArgument",
		})
	}

	cred, err := h.authService.Complete(c.Context(), code, state, storedState, verifier)
	if err != nil {
		slog.Warn("authorization callback failed", "error", err)
		return respondError(c, err)
	}

	h.sessions.PutCredential(c, cred)
	return c.Redirect().Status(fiber.StatusFound).To(h.frontendURL + "/projects")
}

// Logout clears the session credential.
func (h *AuthHandler) Logout(c fiber.Ctx) error {
	h.sessions.ClearCredential(c)
	return c.JSON(fiber.Map{"ok": true})
}

// CheckToken reports whether a live credential is present.
func (h *AuthHandler) CheckToken(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"tokenExists": h.sessions.Credential(c) != nil})
}
