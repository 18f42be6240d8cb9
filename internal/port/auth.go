package port

import (
	"context"

	"github.com/arturoeanton/supabase-guard/internal/domain"
)

// AuthProvider abstracts the OAuth2 authorization server.
type AuthProvider interface {
	// Begin generates a fresh verifier, challenge and state.
	Begin() domain.AuthorizationState

	// AuthURL returns the authorization URL the user is redirected to.
	AuthURL(state, codeChallenge string) string

	// ExchangeCode trades an authorization code and its verifier for a credential.
	ExchangeCode(ctx context.Context, code, codeVerifier string) (*domain.Credential, error)
}
