package middleware

import (
	"github.com/arturoeanton/supabase-guard/internal/domain"
	"github.com/gofiber/fiber/v3"
)

const credentialKey = "credential"

// CredentialSource reads the session credential from a request.
type CredentialSource interface {
	Credential(c fiber.Ctx) *domain.Credential
}

// RequireCredential rejects requests without a live credential and injects
// it into Fiber locals.
func RequireCredential(src CredentialSource) fiber.Handler {
	return func(c fiber.Ctx) error {
		cred := src.Credential(c)
		if cred == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "not authorized with supabase",
				"kind":  "Unauthenticated",
			})
		}

		c.Locals(credentialKey, cred)
		return c.Next()
	}
}

// GetCredential extracts the credential injected by RequireCredential.
func GetCredential(c fiber.Ctx) *domain.Credential {
	cred, ok := c.Locals(credentialKey).(*domain.Credential)
	if !ok {
		return nil
	}
	return cred
}
