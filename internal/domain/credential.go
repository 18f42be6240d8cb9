package domain

import "time"

// AuthorizationState holds the PKCE and anti-forgery artifacts for one
// login attempt. It is single use.
type AuthorizationState struct {
	CodeVerifier  string `json:"-"`
	CodeChallenge string `json:"code_challenge"`
	State         string `json:"-"`
}

// Credential is the bearer token scoped to one Supabase account.
type Credential struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Expired reports whether the credential is no longer usable at now.
// A zero ExpiresAt counts as expired.
func (c *Credential) Expired(now time.Time) bool {
	return c == nil || c.AccessToken == "" || !now.Before(c.ExpiresAt)
}

// Lifetime returns the remaining validity of the credential.
func (c *Credential) Lifetime(now time.Time) time.Duration {
	if c.Expired(now) {
		return 0
	}
	return c.ExpiresAt.Sub(now)
}
