package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/arturoeanton/supabase-guard/internal/domain"
	"github.com/arturoeanton/supabase-guard/internal/port"
	"github.com/arturoeanton/supabase-guard/pkg/config"
	"golang.org/x/oauth2"
)

// SupabaseProvider implements port.AuthProvider for the Supabase management
// API OAuth server. It is a confidential client: the secret travels in a
// basic auth header on the server-to-server token request.
type SupabaseProvider struct {
	oauth      *oauth2.Config
	httpClient *http.Client
	now        func() time.Time
}

// NewSupabaseProvider creates a new Supabase OAuth2 provider.
func NewSupabaseProvider(cfg config.OAuthConfig, httpClient *http.Client) *SupabaseProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &SupabaseProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthorizationURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		httpClient: httpClient,
		now:        time.Now,
	}
}

// Begin generates the artifacts for a new login attempt.
func (p *SupabaseProvider) Begin() domain.AuthorizationState {
	return Begin()
}

// AuthURL returns the Supabase consent screen URL carrying client_id,
// code_challenge, code_challenge_method=S256, redirect_uri, response_type and state.
func (p *SupabaseProvider) AuthURL(state, codeChallenge string) string {
	return p.oauth.AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
}

// ExchangeCode exchanges an authorization code and its verifier for a
// credential. There is no retry: codes are single use.
func (p *SupabaseProvider) ExchangeCode(ctx context.Context, code, codeVerifier string) (*domain.Credential, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	token, err := p.oauth.Exchange(ctx, code, oauth2.VerifierOption(codeVerifier))
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			status := 0
			if retrieveErr.Response != nil {
				status = retrieveErr.Response.StatusCode
			}
			return nil, &port.TokenExchangeError{StatusCode: status, Body: string(retrieveErr.Body)}
		}
		return nil, fmt.Errorf("supabase: token exchange: %w", err)
	}
	if token.AccessToken == "" {
		return nil, &port.TokenExchangeError{StatusCode: http.StatusOK, Body: "response carried no access_token"}
	}

	expiresAt := token.Expiry
	if token.ExpiresIn > 0 {
		expiresAt = p.now().Add(time.Duration(token.ExpiresIn) * time.Second)
	}
	if expiresAt.IsZero() {
		return nil, &port.TokenExchangeError{StatusCode: http.StatusOK, Body: "response carried no expires_in"}
	}

	return &domain.Credential{
		AccessToken: token.AccessToken,
		ExpiresAt:   expiresAt,
	}, nil
}
