package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	defaultSupabaseAuthorizationURL = "https://api.supabase.com/v1/oauth/authorize"
	defaultSupabaseTokenURL         = "https://api.supabase.com/v1/oauth/token"
	defaultSupabaseAPIURL           = "https://api.supabase.com"
)

// Config holds all application configuration loaded from environment variables.
// It is built once at startup and handed to every component; nothing below
// cmd/server reads the environment.
type Config struct {
	// Server
	Port    string
	AppName string
	BaseURL string // public origin of this service, used for the OAuth redirect URI

	// OAuth2: Supabase management API
	SupabaseClientID         string
	SupabaseClientSecret     string
	SupabaseAuthorizationURL string
	SupabaseTokenURL         string
	SupabaseAPIURL           string

	// Cookies
	CookieSecret string // base64-encoded 32 byte key for encryptcookie
	CookieSecure bool

	// Audit log persistence
	AuditStore    string // file | postgres
	AuditFilePath string
	DatabaseURL   string

	// Informational assistant (Perplexity, OpenAI-compatible API)
	PerplexityAPIKey  string
	PerplexityBaseURL string
	PerplexityModel   string

	// Frontend
	FrontendURL string
}

// OAuthConfig is the subset of Config the authorization flow needs.
type OAuthConfig struct {
	ClientID         string
	ClientSecret     string
	AuthorizationURL string
	TokenURL         string
	RedirectURL      string
}

// MissingError reports a required configuration key that was not supplied.
type MissingError struct {
	Key string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("config: required value %s is not set", e.Key)
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Port:    envOrDefault("PORT", "3001"),
		AppName: envOrDefault("APP_NAME", "Supabase Guard"),
		BaseURL: strings.TrimRight(os.Getenv("BASE_URL"), "/"),

		SupabaseClientID:         os.Getenv("SUPABASE_CLIENT_ID"),
		SupabaseClientSecret:     os.Getenv("SUPABASE_CLIENT_SECRET"),
		SupabaseAuthorizationURL: envOrDefault("SUPABASE_AUTHORIZATION_URL", defaultSupabaseAuthorizationURL),
		SupabaseTokenURL:         envOrDefault("SUPABASE_TOKEN_URL", defaultSupabaseTokenURL),
		SupabaseAPIURL:           strings.TrimRight(envOrDefault("SUPABASE_API_URL", defaultSupabaseAPIURL), "/"),

		CookieSecret: os.Getenv("COOKIE_SECRET"),
		CookieSecure: envOrDefaultBool("COOKIE_SECURE", true),

		AuditStore:    envOrDefault("AUDIT_STORE", "file"),
		AuditFilePath: envOrDefault("AUDIT_FILE_PATH", "data/logs.json"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),

		PerplexityAPIKey:  os.Getenv("PERPLEXITY_API_KEY"),
		PerplexityBaseURL: strings.TrimRight(envOrDefault("PERPLEXITY_BASE_URL", "https://api.perplexity.ai"), "/"),
		PerplexityModel:   envOrDefault("PERPLEXITY_MODEL", "llama-3.1-sonar-small-128k-online"),

		FrontendURL: envOrDefault("FRONTEND_URL", "http://localhost:3000"),
	}
}

// RedirectURL returns the OAuth callback URL registered with Supabase.
func (c *Config) RedirectURL() string {
	return c.BaseURL + "/api/auth/callback"
}

// OAuth returns the authorization flow settings, or a *MissingError naming
// the first required value that is absent.
func (c *Config) OAuth() (OAuthConfig, error) {
	required := []struct {
		key, value string
	}{
		{"SUPABASE_CLIENT_ID", c.SupabaseClientID},
		{"SUPABASE_CLIENT_SECRET", c.SupabaseClientSecret},
		{"BASE_URL", c.BaseURL},
		{"SUPABASE_AUTHORIZATION_URL", c.SupabaseAuthorizationURL},
		{"SUPABASE_TOKEN_URL", c.SupabaseTokenURL},
	}
	for _, r := range required {
		if r.value == "" {
			return OAuthConfig{}, &MissingError{Key: r.key}
		}
	}
	return OAuthConfig{
		ClientID:         c.SupabaseClientID,
		ClientSecret:     c.SupabaseClientSecret,
		AuthorizationURL: c.SupabaseAuthorizationURL,
		TokenURL:         c.SupabaseTokenURL,
		RedirectURL:      c.RedirectURL(),
	}, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}
