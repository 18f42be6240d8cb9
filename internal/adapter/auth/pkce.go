package auth

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/arturoeanton/supabase-guard/internal/domain"
	"golang.org/x/oauth2"
)

// stateBytes encodes to 43 base64url characters.
const stateBytes = 32

// Begin generates the PKCE verifier, its S256 challenge and an anti-forgery
// state. Both random values come from crypto/rand; an exhausted entropy
// source panics, which signals a misconfigured host.
func Begin() domain.AuthorizationState {
	verifier := oauth2.GenerateVerifier()
	return domain.AuthorizationState{
		CodeVerifier:  verifier,
		CodeChallenge: oauth2.S256ChallengeFromVerifier(verifier),
		State:         generateState(),
	}
}

func generateState() string {
	b := make([]byte, stateBytes)
	if _, err := rand.Read(b); err != nil {
		panic("auth: crypto/rand unavailable: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
