package project

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/arturoeanton/supabase-guard/internal/domain"
	"github.com/arturoeanton/supabase-guard/internal/port"
	"golang.org/x/oauth2"
)

// ManagementClient implements port.ProjectClient against the Supabase
// management API. Every request is bearer-authenticated with the caller's
// credential; nothing is retried.
type ManagementClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewManagementClient creates a client for the API rooted at baseURL
// (e.g. https://api.supabase.com).
func NewManagementClient(baseURL string, httpClient *http.Client) *ManagementClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &ManagementClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Run executes statement on the project's database and returns the raw rows.
func (m *ManagementClient) Run(ctx context.Context, cred *domain.Credential, projectRef, statement string) (json.RawMessage, error) {
	if err := requireTarget(cred, projectRef); err != nil {
		return nil, err
	}
	payload, err := json.Marshal(map[string]string{"query": statement})
	if err != nil {
		return nil, fmt.Errorf("management: marshal query: %w", err)
	}

	body, err := m.do(ctx, cred, http.MethodPost, projectPath(projectRef, "database/query"), payload)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return json.RawMessage("[]"), nil
	}
	return json.RawMessage(body), nil
}

// Backups returns the project's backup and PITR configuration.
func (m *ManagementClient) Backups(ctx context.Context, cred *domain.Credential, projectRef string) (*domain.BackupStatus, error) {
	if err := requireTarget(cred, projectRef); err != nil {
		return nil, err
	}
	body, err := m.do(ctx, cred, http.MethodGet, projectPath(projectRef, "database/backups"), nil)
	if err != nil {
		return nil, err
	}

	var status domain.BackupStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("management: decode backups: %w", err)
	}
	return &status, nil
}

// ListProjects returns every project visible to the credential.
func (m *ManagementClient) ListProjects(ctx context.Context, cred *domain.Credential) ([]domain.Project, error) {
	if cred.Expired(time.Now()) {
		return nil, port.ErrUnauthenticated
	}
	body, err := m.do(ctx, cred, http.MethodGet, "/v1/projects", nil)
	if err != nil {
		return nil, err
	}

	var projects []domain.Project
	if err := json.Unmarshal(body, &projects); err != nil {
		return nil, fmt.Errorf("management: decode projects: %w", err)
	}
	return projects, nil
}

func (m *ManagementClient) do(ctx context.Context, cred *domain.Credential, method, path string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, m.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("management: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := m.bearerClient(ctx, cred).Do(req)
	if err != nil {
		return nil, fmt.Errorf("management: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("management: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &port.RemoteQueryError{
			StatusCode: resp.StatusCode,
			Message:    remoteMessage(body),
			Body:       string(body),
		}
	}
	return body, nil
}

// bearerClient wraps the base client with a transport that attaches the
// credential. The token source is static: an expired credential is refused
// before any request is built.
func (m *ManagementClient) bearerClient(ctx context.Context, cred *domain.Credential) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: cred.AccessToken,
		TokenType:   "Bearer",
		Expiry:      cred.ExpiresAt,
	}))
	client.Timeout = m.httpClient.Timeout
	return client
}

func requireTarget(cred *domain.Credential, projectRef string) error {
	if cred.Expired(time.Now()) {
		return port.ErrUnauthenticated
	}
	if strings.TrimSpace(projectRef) == "" {
		return port.InvalidArgument("project reference is required")
	}
	return nil
}

func projectPath(projectRef, suffix string) string {
	return "/v1/projects/" + url.PathEscape(projectRef) + "/" + suffix
}

// remoteMessage extracts the "message" (or "error") field of an error
// payload, falling back to the raw body so nothing the remote side said is lost.
func remoteMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   any    `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if s, ok := payload.Error.(string); ok && s != "" {
			return s
		}
	}
	return strings.TrimSpace(string(body))
}
