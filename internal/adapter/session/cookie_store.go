package session

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/arturoeanton/supabase-guard/internal/domain"
	"github.com/gofiber/fiber/v3"
)

// Cookie names.
const (
	VerifierCookie   = "codeVerifier"
	StateCookie      = "state"
	CredentialCookie = "supabaseAccessToken"
)

// authorizationMaxAge bounds one authorization round-trip.
const authorizationMaxAge = 10 * time.Minute

// CookieStore keeps the authorization artifacts and the session credential in
// HTTP-only cookies. The cookie is the store: there is no server-side copy.
// Values are encrypted and authenticated by the encryptcookie middleware
// registered in front of the routes.
type CookieStore struct {
	secure bool
	now    func() time.Time
}

// NewCookieStore creates a cookie store. secure should only be false for
// plain-HTTP local development.
func NewCookieStore(secure bool) *CookieStore {
	return &CookieStore{secure: secure, now: time.Now}
}

// PutAuthorization stores the verifier and state for the callback.
func (s *CookieStore) PutAuthorization(c fiber.Ctx, as domain.AuthorizationState) {
	s.set(c, VerifierCookie, as.CodeVerifier, authorizationMaxAge)
	s.set(c, StateCookie, as.State, authorizationMaxAge)
}

// TakeAuthorization returns the stored verifier and state and clears both
// cookies, so they cannot be replayed whatever the outcome of the exchange.
func (s *CookieStore) TakeAuthorization(c fiber.Ctx) (verifier, state string) {
	verifier = c.Cookies(VerifierCookie)
	state = c.Cookies(StateCookie)
	s.expire(c, VerifierCookie)
	s.expire(c, StateCookie)
	return verifier, state
}

// PutCredential writes the session cookie with a max-age equal to the
// credential's remaining lifetime.
func (s *CookieStore) PutCredential(c fiber.Ctx, cred *domain.Credential) {
	s.set(c, CredentialCookie, EncodeCredential(cred), cred.Lifetime(s.now()))
}

// Credential returns the session credential, or nil when it is missing,
// unreadable or expired.
func (s *CookieStore) Credential(c fiber.Ctx) *domain.Credential {
	return DecodeCredential(c.Cookies(CredentialCookie), s.now())
}

// ClearCredential ends the session.
func (s *CookieStore) ClearCredential(c fiber.Ctx) {
	s.expire(c, CredentialCookie)
}

func (s *CookieStore) set(c fiber.Ctx, name, value string, maxAge time.Duration) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge / time.Second),
		Secure:   s.secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (s *CookieStore) expire(c fiber.Ctx, name string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   s.secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// EncodeCredential serialises a credential into a cookie-safe value.
func EncodeCredential(cred *domain.Credential) string {
	raw, _ := json.Marshal(cred)
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeCredential parses a cookie value. Expired or malformed values are
// reported as absent.
func DecodeCredential(value string, now time.Time) *domain.Credential {
	if value == "" {
		return nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil
	}
	var cred domain.Credential
	if err := json.Unmarshal(raw, &cred); err != nil {
		return nil
	}
	if cred.Expired(now) {
		return nil
	}
	return &cred
}
