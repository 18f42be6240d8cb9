package check

import (
	"context"
	"encoding/json"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/arturoeanton/supabase-guard/internal/domain"
)

var alterPattern = regexp.MustCompile(`ALTER TABLE public\."([^"]+)" ENABLE ROW LEVEL SECURITY`)

// fakeProject is an in-memory stand-in for a remote project. It understands
// the statements the checks send.
type fakeProject struct {
	mu         sync.Mutex
	tables     map[string]bool
	sessions   []map[string]any
	backups    *domain.BackupStatus
	err        error
	statements []string
}

func (f *fakeProject) Run(_ context.Context, _ *domain.Credential, _ string, statement string) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statements = append(f.statements, statement)
	if f.err != nil {
		return nil, f.err
	}

	switch {
	case statement == rlsQuery:
		names := make([]string, 0, len(f.tables))
		for name := range f.tables {
			names = append(names, name)
		}
		sort.Strings(names)
		rows := make([]map[string]any, 0, len(names))
		for _, name := range names {
			rows = append(rows, map[string]any{"table_name": name, "rls_enabled": f.tables[name]})
		}
		return json.Marshal(rows)
	case statement == mfaQuery:
		return json.Marshal(f.sessions)
	case statement == tablesQuery:
		rows := []map[string]any{}
		for name := range f.tables {
			rows = append(rows, map[string]any{"table_schema": "public", "table_name": name, "column_count": 3})
		}
		return json.Marshal(rows)
	case strings.Contains(statement, "ENABLE ROW LEVEL SECURITY"):
		for _, m := range alterPattern.FindAllStringSubmatch(statement, -1) {
			f.tables[m[1]] = true
		}
		return json.RawMessage("[]"), nil
	}
	return json.RawMessage("[]"), nil
}

func (f *fakeProject) Backups(_ context.Context, _ *domain.Credential, _ string) (*domain.BackupStatus, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.backups, nil
}

func (f *fakeProject) ListProjects(context.Context, *domain.Credential) ([]domain.Project, error) {
	return nil, f.err
}
