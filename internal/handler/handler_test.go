package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/arturoeanton/supabase-guard/internal/adapter/session"
	"github.com/arturoeanton/supabase-guard/internal/domain"
	"github.com/arturoeanton/supabase-guard/internal/middleware"
	"github.com/arturoeanton/supabase-guard/internal/port"
	"github.com/arturoeanton/supabase-guard/internal/service"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	exchanges int
	err       error
}

func (f *fakeProvider) Begin() domain.AuthorizationState {
	return domain.AuthorizationState{CodeVerifier: "verifier", CodeChallenge: "challenge", State: "state-1"}
}

func (f *fakeProvider) AuthURL(state, challenge string) string {
	return "https://api.supabase.com/v1/oauth/authorize?state=" + state + "&code_challenge=" + challenge
}

func (f *fakeProvider) ExchangeCode(context.Context, string, string) (*domain.Credential, error) {
	f.exchanges++
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Credential{AccessToken: "tok", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

type memoryAudit struct {
	mu   sync.Mutex
	logs map[string][]domain.LogEntry
}

func (m *memoryAudit) Append(_ context.Context, account string, entries []domain.LogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs[account] = append(m.logs[account], entries...)
	return nil
}

func (m *memoryAudit) List(_ context.Context, account string) ([]domain.LogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.LogEntry{}, m.logs[account]...), nil
}

type tableCheck struct {
	mu     sync.Mutex
	tables map[string]bool
}

func (t *tableCheck) Type() domain.CheckType { return domain.CheckRLS }
func (t *tableCheck) Description() string    { return "rls" }
func (t *tableCheck) AuditAction() string    { return domain.AuditActionRLSCheck }

func (t *tableCheck) Evaluate(context.Context, *domain.Credential, string) ([]domain.Entity, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := []domain.Entity{}
	for _, name := range []string{"orders", "profiles"} {
		out = append(out, domain.Entity{ID: name, Compliant: t.tables[name]})
	}
	return out, nil
}

func (t *tableCheck) Actions() []string { return []string{"enable_rls"} }

func (t *tableCheck) RemediationAuditAction(string) string { return domain.AuditActionEnableRLS }

func (t *tableCheck) Remediate(_ context.Context, _ *domain.Credential, _, table, _ string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tables[table] = true
	return nil
}

type failingCheck struct{}

func (failingCheck) Type() domain.CheckType { return domain.CheckMFA }
func (failingCheck) Description() string    { return "mfa" }
func (failingCheck) AuditAction() string    { return domain.AuditActionMFACheck }

func (failingCheck) Evaluate(context.Context, *domain.Credential, string) ([]domain.Entity, error) {
	return nil, &port.RemoteQueryError{StatusCode: 400, Message: `{"message":"permission denied for schema auth"}`}
}

type fakeProjects struct{}

func (fakeProjects) Run(context.Context, *domain.Credential, string, string) (json.RawMessage, error) {
	return nil, nil
}

func (fakeProjects) Backups(context.Context, *domain.Credential, string) (*domain.BackupStatus, error) {
	return nil, nil
}

func (fakeProjects) ListProjects(context.Context, *domain.Credential) ([]domain.Project, error) {
	return []domain.Project{{ID: "abc", Name: "shop"}}, nil
}

type fakeAssistant struct{}

func (fakeAssistant) ModelName() string { return "sonar" }

func (fakeAssistant) Chat(context.Context, []domain.ChatMessage) (string, error) {
	return "RLS can be enabled without code changes.", nil
}

func (fakeAssistant) ChatStream(context.Context, []domain.ChatMessage) (<-chan string, error) {
	ch := make(chan string, 2)
	ch <- "PITR "
	ch <- "is paid."
	close(ch)
	return ch, nil
}

type testEnv struct {
	app      *fiber.App
	provider *fakeProvider
	audit    *memoryAudit
}

func newEnv(t *testing.T, global ...fiber.Handler) *testEnv {
	t.Helper()
	env := &testEnv{
		provider: &fakeProvider{},
		audit:    &memoryAudit{logs: map[string][]domain.LogEntry{}},
	}
	sessions := session.NewCookieStore(false)
	engine := port.NewCheckEngine(&tableCheck{tables: map[string]bool{"profiles": true}}, failingCheck{})
	checks := service.NewCheckService(engine, env.audit)

	app := fiber.New()
	for _, h := range global {
		app.Use(h)
	}
	NewAuthHandler(service.NewAuthService(env.provider), nil, sessions, "http://front.test").Register(app)
	NewChatHandler(service.NewChatService(fakeAssistant{})).Register(app.Group("/api"))

	api := app.Group("/api/v1", middleware.RequireCredential(sessions))
	NewProjectHandler(service.NewProjectService(fakeProjects{}), checks).Register(api)
	NewCheckHandler(checks).Register(api)
	NewAuditHandler(checks).Register(api)

	env.app = app
	return env
}

func sessionCookie() *http.Cookie {
	cred := &domain.Credential{AccessToken: "tok", ExpiresAt: time.Now().Add(time.Hour)}
	return &http.Cookie{Name: session.CredentialCookie, Value: session.EncodeCredential(cred)}
}

func (e *testEnv) do(t *testing.T, method, target, body string, cookies ...*http.Cookie) (*http.Response, string) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err := e.app.Test(req)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(raw)
}

func jsonBody(t *testing.T, raw string) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	return out
}
