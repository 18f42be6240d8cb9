package service

import (
	"context"
	"fmt"

	"github.com/arturoeanton/supabase-guard/internal/domain"
	"github.com/arturoeanton/supabase-guard/internal/port"
)

// ProjectService lists the projects reachable with a credential.
type ProjectService struct {
	client port.ProjectClient
}

// NewProjectService creates a new project service.
func NewProjectService(client port.ProjectClient) *ProjectService {
	return &ProjectService{client: client}
}

// List returns every project of the authorized account.
func (s *ProjectService) List(ctx context.Context, cred *domain.Credential) ([]domain.Project, error) {
	projects, err := s.client.ListProjects(ctx, cred)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	if projects == nil {
		projects = []domain.Project{}
	}
	return projects, nil
}
