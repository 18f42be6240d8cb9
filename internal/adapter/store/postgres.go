package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/arturoeanton/supabase-guard/internal/domain"
	"github.com/arturoeanton/supabase-guard/internal/port"
	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS account_logs (
	account_id TEXT PRIMARY KEY,
	logs       JSONB NOT NULL DEFAULT '[]'::jsonb,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// PostgresStore keeps one row per account holding its log as a JSONB array.
// Appends lock the account's row for the whole read-modify-write cycle, so
// writers to one account are serialised while other accounts proceed.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection and returns a store instance.
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromDB wraps an existing handle.
func NewPostgresStoreFromDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the account_logs table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Append adds entries to the account's log in call order.
func (s *PostgresStore) Append(ctx context.Context, accountID string, entries []domain.LogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO account_logs (account_id) VALUES ($1) ON CONFLICT (account_id) DO NOTHING`,
		accountID,
	); err != nil {
		return fmt.Errorf("create account log: %w", err)
	}

	var raw []byte
	if err := tx.QueryRowContext(ctx,
		`SELECT logs FROM account_logs WHERE account_id = $1 FOR UPDATE`,
		accountID,
	).Scan(&raw); err != nil {
		return fmt.Errorf("lock account log: %w", err)
	}

	logs, err := decodeLogs(accountID, raw)
	if err != nil {
		return err
	}
	logs = append(logs, entries...)

	encoded, err := json.Marshal(logs)
	if err != nil {
		return fmt.Errorf("marshal account log: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE account_logs SET logs = $2::jsonb, updated_at = NOW() WHERE account_id = $1`,
		accountID, string(encoded),
	); err != nil {
		return fmt.Errorf("update account log: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit account log: %w", err)
	}
	return nil
}

// List returns the account's log. Unknown accounts yield an empty slice.
func (s *PostgresStore) List(ctx context.Context, accountID string) ([]domain.LogEntry, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT logs FROM account_logs WHERE account_id = $1`,
		accountID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return []domain.LogEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list account log: %w", err)
	}
	return decodeLogs(accountID, raw)
}

func decodeLogs(accountID string, raw []byte) ([]domain.LogEntry, error) {
	logs := []domain.LogEntry{}
	if len(raw) == 0 {
		return logs, nil
	}
	if err := json.Unmarshal(raw, &logs); err != nil {
		return nil, fmt.Errorf("%w: account %s: %v", port.ErrCorruptLogStore, accountID, err)
	}
	if logs == nil {
		logs = []domain.LogEntry{}
	}
	return logs, nil
}
