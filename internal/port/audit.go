package port

import (
	"context"

	"github.com/arturoeanton/supabase-guard/internal/domain"
)

// AuditStore persists append-only log entries partitioned by account.
// Concurrent appends for the same account must not lose entries.
type AuditStore interface {
	// Append adds entries, in order, to the account's log.
	Append(ctx context.Context, accountID string, entries []domain.LogEntry) error

	// List returns the account's entries in insertion order. Unknown
	// accounts yield an empty slice.
	List(ctx context.Context, accountID string) ([]domain.LogEntry, error)
}
