package check

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/arturoeanton/supabase-guard/internal/domain"
	"github.com/arturoeanton/supabase-guard/internal/port"
)

// RLS remediation actions.
const (
	ActionEnableRLS      = "enable_rls"
	ActionGrantRead      = "grant_read"
	ActionGrantReadWrite = "grant_read_write"
)

const rlsQuery = `
SELECT
  c.relname AS table_name,
  c.relrowsecurity AS rls_enabled
FROM pg_class c
JOIN pg_namespace n ON n.oid = c.relnamespace
WHERE c.relkind = 'r'
  AND n.nspname = 'public'
ORDER BY c.relname;`

const tablesQuery = `
SELECT
  t.table_schema,
  t.table_name,
  (SELECT COUNT(*) FROM information_schema.columns col
    WHERE col.table_schema = t.table_schema AND col.table_name = t.table_name) AS column_count
FROM information_schema.tables t
WHERE t.table_schema = 'public'
ORDER BY t.table_name;`

// RLSCheck reports public tables without row-level security and offers
// remediations that enable it, optionally with an authenticated-role policy.
type RLSCheck struct {
	client port.ProjectClient
}

// NewRLSCheck creates the RLS check.
func NewRLSCheck(client port.ProjectClient) *RLSCheck {
	return &RLSCheck{client: client}
}

func (r *RLSCheck) Type() domain.CheckType { return domain.CheckRLS }
func (r *RLSCheck) Description() string {
	return "Row-level security must be enabled on every table in the public schema"
}
func (r *RLSCheck) AuditAction() string { return domain.AuditActionRLSCheck }

// Evaluate returns one entity per public table.
func (r *RLSCheck) Evaluate(ctx context.Context, cred *domain.Credential, projectRef string) ([]domain.Entity, error) {
	raw, err := r.client.Run(ctx, cred, projectRef, rlsQuery)
	if err != nil {
		return nil, fmt.Errorf("rls check: %w", err)
	}

	var rows []struct {
		TableName  string `json:"table_name"`
		RLSEnabled bool   `json:"rls_enabled"`
	}
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("rls check: decode rows: %w", err)
	}

	entities := make([]domain.Entity, 0, len(rows))
	for _, row := range rows {
		entities = append(entities, domain.Entity{
			ID:        row.TableName,
			Compliant: row.RLSEnabled,
			Attributes: map[string]any{
				"table_name":  row.TableName,
				"rls_enabled": row.RLSEnabled,
			},
		})
	}
	return entities, nil
}

// Actions lists the supported remediations.
func (r *RLSCheck) Actions() []string {
	return []string{ActionEnableRLS, ActionGrantRead, ActionGrantReadWrite}
}

// RemediationAuditAction names the audit entry for action.
func (r *RLSCheck) RemediationAuditAction(action string) string {
	switch action {
	case ActionGrantRead:
		return domain.AuditActionGrantRead
	case ActionGrantReadWrite:
		return domain.AuditActionGrantReadWrite
	default:
		return domain.AuditActionEnableRLS
	}
}

// Remediate applies action to table. Each statement is idempotent.
func (r *RLSCheck) Remediate(ctx context.Context, cred *domain.Credential, projectRef, table, action string) error {
	stmt, err := RemediationStatement(table, action)
	if err != nil {
		return err
	}
	if _, err := r.client.Run(ctx, cred, projectRef, stmt); err != nil {
		return fmt.Errorf("rls %s %s: %w", action, table, err)
	}
	return nil
}

// Tables lists the public tables with their column counts.
func (r *RLSCheck) Tables(ctx context.Context, cred *domain.Credential, projectRef string) ([]domain.ProjectTable, error) {
	raw, err := r.client.Run(ctx, cred, projectRef, tablesQuery)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	tables := []domain.ProjectTable{}
	if err := json.Unmarshal(raw, &tables); err != nil {
		return nil, fmt.Errorf("list tables: decode rows: %w", err)
	}
	return tables, nil
}

// RemediationStatement builds the DDL for action on table.
func RemediationStatement(table, action string) (string, error) {
	ident, err := quoteIdent(table)
	if err != nil {
		return "", err
	}
	enable := fmt.Sprintf("ALTER TABLE public.%s ENABLE ROW LEVEL SECURITY;", ident)

	switch action {
	case ActionEnableRLS:
		return enable, nil
	case ActionGrantRead:
		policy := `"authenticated_read_` + table + `"`
		return enable + fmt.Sprintf(
			"\nDROP POLICY IF EXISTS %s ON public.%s;"+
				"\nCREATE POLICY %s ON public.%s FOR SELECT TO authenticated USING (true);",
			policy, ident, policy, ident), nil
	case ActionGrantReadWrite:
		policy := `"authenticated_all_` + table + `"`
		return enable + fmt.Sprintf(
			"\nDROP POLICY IF EXISTS %s ON public.%s;"+
				"\nCREATE POLICY %s ON public.%s FOR ALL TO authenticated USING (true) WITH CHECK (true);",
			policy, ident, policy, ident), nil
	}
	return "", port.InvalidArgument("unknown remediation %q", action)
}
