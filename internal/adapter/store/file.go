package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/arturoeanton/supabase-guard/internal/domain"
	"github.com/arturoeanton/supabase-guard/internal/port"
)

// FileStore keeps every AccountLog in one JSON document. Each append reads
// the whole document, updates one partition and rewrites it atomically.
// The mutex spans the full cycle for all accounts: the document is shared,
// so locking per account alone would drop concurrent writes to other
// partitions.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store persisting to path. The file is created on
// first append.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Append adds entries to the account's log in call order.
func (s *FileStore) Append(_ context.Context, accountID string, entries []domain.LogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.read()
	if err != nil {
		return err
	}

	idx := -1
	for i := range accounts {
		if accounts[i].AccountID == accountID {
			idx = i
			break
		}
	}
	if idx < 0 {
		accounts = append(accounts, domain.AccountLog{AccountID: accountID})
		idx = len(accounts) - 1
	}
	accounts[idx].Logs = append(accounts[idx].Logs, entries...)

	return s.write(accounts)
}

// List returns the account's log. A missing file or account is empty.
func (s *FileStore) List(_ context.Context, accountID string) ([]domain.LogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.read()
	if err != nil {
		return nil, err
	}
	for _, a := range accounts {
		if a.AccountID == accountID {
			out := make([]domain.LogEntry, len(a.Logs))
			copy(out, a.Logs)
			return out, nil
		}
	}
	return []domain.LogEntry{}, nil
}

func (s *FileStore) read() ([]domain.AccountLog, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file store: read %s: %w", s.path, err)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	var accounts []domain.AccountLog
	if err := json.Unmarshal(raw, &accounts); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", port.ErrCorruptLogStore, s.path, err)
	}
	return accounts, nil
}

func (s *FileStore) write(accounts []domain.AccountLog) error {
	raw, err := json.MarshalIndent(accounts, "", "  ")
	if err != nil {
		return fmt.Errorf("file store: marshal: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("file store: create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("file store: create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("file store: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("file store: sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("file store: close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("file store: replace %s: %w", s.path, err)
	}
	return nil
}
