package port

import (
	"context"
	"encoding/json"

	"github.com/arturoeanton/supabase-guard/internal/domain"
)

// ProjectClient issues privileged calls against a remote project using the
// caller's credential. It performs no statement sanitization.
type ProjectClient interface {
	// Run executes a SQL statement and returns the raw JSON rows.
	Run(ctx context.Context, cred *domain.Credential, projectRef, statement string) (json.RawMessage, error)

	// Backups returns the project's backup configuration.
	Backups(ctx context.Context, cred *domain.Credential, projectRef string) (*domain.BackupStatus, error)

	// ListProjects returns the projects the credential can see.
	ListProjects(ctx context.Context, cred *domain.Credential) ([]domain.Project, error)
}
