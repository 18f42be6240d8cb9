package domain

import "encoding/json"

// Project is a Supabase project visible to the credential.
type Project struct {
	ID             string           `json:"id"`
	Ref            string           `json:"ref,omitempty"`
	OrganizationID string           `json:"organization_id"`
	Name           string           `json:"name"`
	Region         string           `json:"region"`
	CreatedAt      string           `json:"created_at"`
	Status         string           `json:"status,omitempty"`
	Database       *ProjectDatabase `json:"database,omitempty"`
}

// ProjectDatabase describes a project's Postgres instance.
type ProjectDatabase struct {
	Host    string `json:"host"`
	Version string `json:"version"`
}

// ProjectTable is a table in the public schema.
type ProjectTable struct {
	Schema      string `json:"table_schema"`
	Name        string `json:"table_name"`
	ColumnCount int    `json:"column_count"`
}

// BackupStatus is the project's backup configuration as reported by the
// management API.
type BackupStatus struct {
	Region             string            `json:"region"`
	PITREnabled        bool              `json:"pitr_enabled"`
	WALGEnabled        bool              `json:"walg_enabled"`
	Backups            []json.RawMessage `json:"backups"`
	PhysicalBackupData json.RawMessage   `json:"physical_backup_data,omitempty"`
}
