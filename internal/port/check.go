package port

import (
	"context"
	"fmt"

	"github.com/arturoeanton/supabase-guard/internal/domain"
)

// Check defines one compliance check (Strategy Pattern).
type Check interface {
	// Type returns the check's identifier.
	Type() domain.CheckType

	// Description returns a human-readable description of what is checked.
	Description() string

	// AuditAction is the action name recorded for evaluations.
	AuditAction() string

	// Evaluate reads the remote project and returns one entity per subject.
	Evaluate(ctx context.Context, cred *domain.Credential, projectRef string) ([]domain.Entity, error)
}

// Remediator is implemented by checks that offer one-click fixes.
type Remediator interface {
	// Actions lists the supported remediation action names.
	Actions() []string

	// RemediationAuditAction is the action name recorded for a remediation.
	RemediationAuditAction(action string) string

	// Remediate applies action to the entity. Every action is idempotent.
	Remediate(ctx context.Context, cred *domain.Credential, projectRef, entityID, action string) error
}

// CheckEngine holds the registered checks.
type CheckEngine struct {
	checks map[domain.CheckType]Check
	order  []domain.CheckType
}

// NewCheckEngine creates a new engine with the given checks.
func NewCheckEngine(checks ...Check) *CheckEngine {
	e := &CheckEngine{checks: make(map[domain.CheckType]Check, len(checks))}
	for _, c := range checks {
		if _, dup := e.checks[c.Type()]; !dup {
			e.order = append(e.order, c.Type())
		}
		e.checks[c.Type()] = c
	}
	return e
}

// Get returns the check registered for t.
func (e *CheckEngine) Get(t domain.CheckType) (Check, error) {
	c, ok := e.checks[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCheckNotFound, t)
	}
	return c, nil
}

// Remediator returns the remediator registered for t.
func (e *CheckEngine) Remediator(t domain.CheckType) (Remediator, error) {
	c, err := e.Get(t)
	if err != nil {
		return nil, err
	}
	r, ok := c.(Remediator)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRemediationUnsupported, t)
	}
	return r, nil
}

// Available returns the registered check types in registration order.
func (e *CheckEngine) Available() []domain.CheckType {
	out := make([]domain.CheckType, len(e.order))
	copy(out, e.order)
	return out
}
