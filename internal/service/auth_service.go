package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"

	"github.com/arturoeanton/supabase-guard/internal/domain"
	"github.com/arturoeanton/supabase-guard/internal/port"
)

// AuthService handles the authorization code round-trip.
type AuthService struct {
	provider port.AuthProvider
}

// NewAuthService creates a new authentication service.
func NewAuthService(provider port.AuthProvider) *AuthService {
	return &AuthService{provider: provider}
}

// Begin starts a login attempt. The returned state must be persisted by the
// caller and handed back to Complete.
func (s *AuthService) Begin() (string, domain.AuthorizationState) {
	as := s.provider.Begin()
	return s.provider.AuthURL(as.State, as.CodeChallenge), as
}

// Complete validates the callback against the stored state and exchanges
// the code. A mismatch never reaches the token endpoint.
func (s *AuthService) Complete(ctx context.Context, code, state, storedState, verifier string) (*domain.Credential, error) {
	if code == "" {
		return nil, port.InvalidArgument("missing authorization code")
	}
	if state == "" || storedState == "" || verifier == "" {
		return nil, fmt.Errorf("%w: missing state or verifier", port.ErrAuthorizationMismatch)
	}
	if subtle.ConstantTimeCompare([]byte(state), []byte(storedState)) != 1 {
		return nil, fmt.Errorf("%w: state does not match", port.ErrAuthorizationMismatch)
	}

	cred, err := s.provider.ExchangeCode(ctx, code, verifier)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	slog.Info("supabase account authorized", "expires_at", cred.ExpiresAt)
	return cred, nil
}
