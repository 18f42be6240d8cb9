package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/arturoeanton/supabase-guard/internal/domain"
	"github.com/arturoeanton/supabase-guard/internal/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(id string, t domain.CheckType) domain.LogEntry {
	return domain.LogEntry{
		ID:        id,
		Timestamp: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Action:    domain.AuditActionRLSCheck,
		Result:    json.RawMessage(`{"status":"pass"}`),
		CheckType: t,
	}
}

func TestFileStoreAppendAndList(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "nested", "logs.json"))
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "proj-a", []domain.LogEntry{entry("1", domain.CheckRLS), entry("2", domain.CheckRLS)}))
	require.NoError(t, s.Append(ctx, "proj-a", []domain.LogEntry{entry("3", domain.CheckMFA)}))
	require.NoError(t, s.Append(ctx, "proj-b", []domain.LogEntry{entry("4", domain.CheckPITR)}))

	logs, err := s.List(ctx, "proj-a")
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, "1", logs[0].ID)
	assert.Equal(t, "3", logs[2].ID)
	assert.Equal(t, domain.CheckMFA, logs[2].CheckType)
	assert.JSONEq(t, `{"status":"pass"}`, string(logs[0].Result))

	other, err := s.List(ctx, "proj-b")
	require.NoError(t, err)
	require.Len(t, other, 1)
}

func TestFileStoreUnknownAccountIsEmpty(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "logs.json"))

	logs, err := s.List(context.Background(), "missing")
	require.NoError(t, err)
	assert.NotNil(t, logs)
	assert.Empty(t, logs)

	require.NoError(t, s.Append(context.Background(), "proj", []domain.LogEntry{entry("1", domain.CheckRLS)}))
	logs, err = s.List(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestFileStoreConcurrentAppendsKeepEveryEntry(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "logs.json"))
	ctx := context.Background()

	const writers = 8
	const perWriter = 10
	accounts := []string{"proj-a", "proj-b"}

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			account := accounts[w%len(accounts)]
			for i := 0; i < perWriter; i++ {
				err := s.Append(ctx, account, []domain.LogEntry{entry(fmt.Sprintf("%d-%d", w, i), domain.CheckRLS)})
				assert.NoError(t, err)
			}
		}(w)
	}
	wg.Wait()

	total := 0
	seen := map[string]bool{}
	for _, account := range accounts {
		logs, err := s.List(ctx, account)
		require.NoError(t, err)
		total += len(logs)
		for _, l := range logs {
			seen[l.ID] = true
		}
	}
	assert.Equal(t, writers*perWriter, total)
	assert.Len(t, seen, writers*perWriter)
}

func TestFileStoreCorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	s := NewFileStore(path)

	_, err := s.List(context.Background(), "proj")
	assert.ErrorIs(t, err, port.ErrCorruptLogStore)

	err = s.Append(context.Background(), "proj", []domain.LogEntry{entry("1", domain.CheckRLS)})
	assert.ErrorIs(t, err, port.ErrCorruptLogStore)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(raw), "corrupt document must not be overwritten")
}

func TestFileStoreAppendNothingIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs.json")
	s := NewFileStore(path)

	require.NoError(t, s.Append(context.Background(), "proj", nil))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
