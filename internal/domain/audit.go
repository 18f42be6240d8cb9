package domain

import (
	"encoding/json"
	"time"
)

// LogEntry records one check or remediation action. Entries are immutable
// once appended.
type LogEntry struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Action    string          `json:"action"`
	Result    json.RawMessage `json:"result"`
	CheckType CheckType       `json:"type"`
}

// AccountLog is the append-only partition of entries for one account.
type AccountLog struct {
	AccountID string     `json:"account_id"`
	Logs      []LogEntry `json:"logs"`
}

// Audit action constants.
const (
	AuditActionRLSCheck       = "RLS Check"
	AuditActionMFACheck       = "MFA Check"
	AuditActionPITRCheck      = "PITR Check"
	AuditActionEnableRLS      = "Enable RLS"
	AuditActionGrantRead      = "Grant Read"
	AuditActionGrantReadWrite = "Grant Read/Write"

	// AuditErrorSuffix is appended to an action name for failure entries.
	AuditErrorSuffix = " Error"
)
