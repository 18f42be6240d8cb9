package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/arturoeanton/supabase-guard/internal/domain"
	"github.com/arturoeanton/supabase-guard/internal/port"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type memoryAudit struct {
	mu        sync.Mutex
	logs      map[string][]domain.LogEntry
	appendErr error
}

func newMemoryAudit() *memoryAudit {
	return &memoryAudit{logs: map[string][]domain.LogEntry{}}
}

func (m *memoryAudit) Append(_ context.Context, account string, entries []domain.LogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	m.logs[account] = append(m.logs[account], entries...)
	return nil
}

func (m *memoryAudit) List(_ context.Context, account string) ([]domain.LogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]domain.LogEntry{}, m.logs[account]...)
	return out, nil
}

type fakeCheck struct {
	t        domain.CheckType
	action   string
	entities []domain.Entity
	err      error
	calls    int
	mu       sync.Mutex
}

func (f *fakeCheck) Type() domain.CheckType { return f.t }
func (f *fakeCheck) Description() string    { return "fake " + string(f.t) }
func (f *fakeCheck) AuditAction() string    { return f.action }

func (f *fakeCheck) Evaluate(context.Context, *domain.Credential, string) ([]domain.Entity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.entities, nil
}

// fakeRLS remediates by flipping the matching entity to compliant.
type fakeRLS struct {
	fakeCheck
	remediateErr error
	applied      []string
	tables       []domain.ProjectTable
}

func (f *fakeRLS) Actions() []string { return []string{"enable_rls", "grant_read"} }

func (f *fakeRLS) RemediationAuditAction(action string) string {
	if action == "grant_read" {
		return domain.AuditActionGrantRead
	}
	return domain.AuditActionEnableRLS
}

func (f *fakeRLS) Remediate(_ context.Context, _ *domain.Credential, _, entityID, action string) error {
	if f.remediateErr != nil {
		return f.remediateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applied = append(f.applied, action+":"+entityID)
	for i := range f.entities {
		if f.entities[i].ID == entityID {
			f.entities[i].Compliant = true
		}
	}
	return nil
}

func (f *fakeRLS) Tables(context.Context, *domain.Credential, string) ([]domain.ProjectTable, error) {
	return f.tables, nil
}

type fakeProvider struct {
	state     domain.AuthorizationState
	exchanges int
	cred      *domain.Credential
	err       error
}

func (f *fakeProvider) Begin() domain.AuthorizationState { return f.state }

func (f *fakeProvider) AuthURL(state, challenge string) string {
	return "https://auth.example.com/authorize?state=" + state + "&code_challenge=" + challenge
}

func (f *fakeProvider) ExchangeCode(context.Context, string, string) (*domain.Credential, error) {
	f.exchanges++
	return f.cred, f.err
}

type fakeAssistant struct {
	got   []domain.ChatMessage
	reply string
	err   error
}

func (f *fakeAssistant) ModelName() string { return "fake-model" }

func (f *fakeAssistant) Chat(_ context.Context, msgs []domain.ChatMessage) (string, error) {
	f.got = msgs
	return f.reply, f.err
}

func (f *fakeAssistant) ChatStream(_ context.Context, msgs []domain.ChatMessage) (<-chan string, error) {
	f.got = msgs
	if f.err != nil {
		return nil, f.err
	}
	ch := make(chan string, 1)
	ch <- f.reply
	close(ch)
	return ch, nil
}

type fakeProjects struct {
	projects []domain.Project
	err      error
}

func (f *fakeProjects) Run(context.Context, *domain.Credential, string, string) (json.RawMessage, error) {
	return nil, errors.New("not used")
}

func (f *fakeProjects) Backups(context.Context, *domain.Credential, string) (*domain.BackupStatus, error) {
	return nil, errors.New("not used")
}

func (f *fakeProjects) ListProjects(context.Context, *domain.Credential) ([]domain.Project, error) {
	return f.projects, f.err
}

var (
	_ port.Check        = (*fakeCheck)(nil)
	_ port.Remediator   = (*fakeRLS)(nil)
	_ port.AuthProvider = (*fakeProvider)(nil)
	_ port.Assistant    = (*fakeAssistant)(nil)
)
