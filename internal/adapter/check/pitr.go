package check

import (
	"context"
	"fmt"

	"github.com/arturoeanton/supabase-guard/internal/domain"
	"github.com/arturoeanton/supabase-guard/internal/port"
)

// PITRCheck reports whether point-in-time recovery is enabled for a project.
type PITRCheck struct {
	client port.ProjectClient
}

// NewPITRCheck creates the PITR check.
func NewPITRCheck(client port.ProjectClient) *PITRCheck {
	return &PITRCheck{client: client}
}

func (p *PITRCheck) Type() domain.CheckType { return domain.CheckPITR }
func (p *PITRCheck) Description() string {
	return "Point-in-time recovery must be enabled for the project"
}
func (p *PITRCheck) AuditAction() string { return domain.AuditActionPITRCheck }

// Evaluate returns a single entity for the project. Region, WAL-G and backup
// count are carried for display only.
func (p *PITRCheck) Evaluate(ctx context.Context, cred *domain.Credential, projectRef string) ([]domain.Entity, error) {
	status, err := p.client.Backups(ctx, cred, projectRef)
	if err != nil {
		return nil, fmt.Errorf("pitr check: %w", err)
	}
	return []domain.Entity{{
		ID:        projectRef,
		Compliant: status.PITREnabled,
		Attributes: map[string]any{
			"pitr_enabled": status.PITREnabled,
			"walg_enabled": status.WALGEnabled,
			"region":       status.Region,
			"backup_count": len(status.Backups),
		},
	}}, nil
}
