package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/arturoeanton/supabase-guard/internal/domain"
	"github.com/arturoeanton/supabase-guard/internal/port"
)

// TableLister is implemented by checks that can enumerate the project's
// public tables.
type TableLister interface {
	Tables(ctx context.Context, cred *domain.Credential, projectRef string) ([]domain.ProjectTable, error)
}

// CheckService runs compliance checks and records every outcome in the
// audit log, keyed by project ref.
type CheckService struct {
	engine *port.CheckEngine
	audit  port.AuditStore
	now    func() time.Time
}

// NewCheckService creates a new check service with the given engine and
// audit store.
func NewCheckService(engine *port.CheckEngine, audit port.AuditStore) *CheckService {
	return &CheckService{engine: engine, audit: audit, now: time.Now}
}

// Available returns the registered check types.
func (s *CheckService) Available() []domain.CheckType {
	return s.engine.Available()
}

// Describe returns each registered check with its description and
// remediation actions, in registration order.
func (s *CheckService) Describe() []domain.CheckInfo {
	types := s.engine.Available()
	out := make([]domain.CheckInfo, 0, len(types))
	for _, t := range types {
		c, err := s.engine.Get(t)
		if err != nil {
			continue
		}
		info := domain.CheckInfo{Type: t, Description: c.Description()}
		if r, ok := c.(port.Remediator); ok {
			info.Actions = r.Actions()
		}
		out = append(out, info)
	}
	return out
}

// Run evaluates one check. An evaluation failure is written to the audit log
// as a single error entry before being returned. A failure to write the log
// does not discard a successful report; it is carried in AuditError.
func (s *CheckService) Run(ctx context.Context, cred *domain.Credential, projectRef string, t domain.CheckType) (*domain.CheckReport, error) {
	if projectRef == "" {
		return nil, port.InvalidArgument("project ref is required")
	}
	check, err := s.engine.Get(t)
	if err != nil {
		return nil, err
	}

	slog.Info("running check", "check", t, "project", projectRef)
	entities, err := check.Evaluate(ctx, cred, projectRef)
	if err != nil {
		s.recordFailure(ctx, projectRef, t, check.AuditAction(), err)
		return nil, fmt.Errorf("run check %s: %w", t, err)
	}

	report := domain.NewCheckReport(t, projectRef, entities)
	if err := s.audit.Append(ctx, projectRef, s.entityEntries(check.AuditAction(), t, entities)); err != nil {
		slog.Error("audit append failed", "check", t, "project", projectRef, "error", err)
		report.AuditError = err.Error()
	}
	return report, nil
}

// RunAll evaluates every registered check concurrently. One failing check
// never cancels or hides the others.
func (s *CheckService) RunAll(ctx context.Context, cred *domain.Credential, projectRef string) ([]domain.CheckOutcome, error) {
	if projectRef == "" {
		return nil, port.InvalidArgument("project ref is required")
	}

	types := s.engine.Available()
	outcomes := make([]domain.CheckOutcome, len(types))

	var g errgroup.Group
	for i, t := range types {
		g.Go(func() error {
			outcomes[i].CheckType = t
			report, err := s.Run(ctx, cred, projectRef, t)
			if err != nil {
				outcomes[i].Error = err.Error()
				return nil
			}
			outcomes[i].Report = report
			return nil
		})
	}
	_ = g.Wait()

	return outcomes, nil
}

// Remediate applies action to one entity, records it, then re-runs the
// check so the caller sees the effect.
func (s *CheckService) Remediate(ctx context.Context, cred *domain.Credential, projectRef string, t domain.CheckType, entityID, action string) (*domain.CheckReport, error) {
	if projectRef == "" {
		return nil, port.InvalidArgument("project ref is required")
	}
	if entityID == "" {
		return nil, port.InvalidArgument("entity is required")
	}
	r, err := s.engine.Remediator(t)
	if err != nil {
		return nil, err
	}
	if !contains(r.Actions(), action) {
		return nil, port.InvalidArgument("unknown action %q", action)
	}

	auditAction := r.RemediationAuditAction(action)
	slog.Info("applying remediation", "check", t, "project", projectRef, "entity", entityID, "action", action)
	if err := r.Remediate(ctx, cred, projectRef, entityID, action); err != nil {
		s.recordFailure(ctx, projectRef, t, auditAction, err)
		return nil, fmt.Errorf("remediate %s: %w", entityID, err)
	}

	entry := s.entry(auditAction, t, map[string]any{
		"entity": entityID,
		"action": action,
		"status": "applied",
	})
	auditErr := s.audit.Append(ctx, projectRef, []domain.LogEntry{entry})
	if auditErr != nil {
		slog.Error("audit append failed", "check", t, "project", projectRef, "error", auditErr)
	}

	report, err := s.Run(ctx, cred, projectRef, t)
	if err != nil {
		return nil, err
	}
	if auditErr != nil && report.AuditError == "" {
		report.AuditError = auditErr.Error()
	}
	return report, nil
}

// Tables lists the project's public tables through the first check that
// can enumerate them.
func (s *CheckService) Tables(ctx context.Context, cred *domain.Credential, projectRef string) ([]domain.ProjectTable, error) {
	if projectRef == "" {
		return nil, port.InvalidArgument("project ref is required")
	}
	for _, t := range s.engine.Available() {
		c, err := s.engine.Get(t)
		if err != nil {
			continue
		}
		if lister, ok := c.(TableLister); ok {
			return lister.Tables(ctx, cred, projectRef)
		}
	}
	return nil, fmt.Errorf("%w: table listing", port.ErrCheckNotFound)
}

// Logs returns the project's audit entries, optionally restricted to one
// check type, in insertion order.
func (s *CheckService) Logs(ctx context.Context, projectRef string, filter domain.CheckType) ([]domain.LogEntry, error) {
	if projectRef == "" {
		return nil, port.InvalidArgument("project ref is required")
	}
	logs, err := s.audit.List(ctx, projectRef)
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	if filter == "" {
		return logs, nil
	}
	out := make([]domain.LogEntry, 0, len(logs))
	for _, l := range logs {
		if l.CheckType == filter {
			out = append(out, l)
		}
	}
	return out, nil
}

// FormatLogs renders entries as the plain-text download format.
func FormatLogs(entries []domain.LogEntry) string {
	var b strings.Builder
	for _, e := range entries {
		result := string(e.Result)
		var v any
		if err := json.Unmarshal(e.Result, &v); err == nil {
			if pretty, err := json.MarshalIndent(v, "", "  "); err == nil {
				result = string(pretty)
			}
		}
		fmt.Fprintf(&b, "[%s]\nAction: %s\nType: %s\nResult: %s\n\n",
			e.Timestamp.UTC().Format(time.RFC3339), e.Action, e.CheckType, result)
	}
	return b.String()
}

func (s *CheckService) entityEntries(action string, t domain.CheckType, entities []domain.Entity) []domain.LogEntry {
	entries := make([]domain.LogEntry, 0, len(entities))
	for _, e := range entities {
		entries = append(entries, s.entry(action, t, map[string]any{
			"entity":     e.ID,
			"attributes": e.Attributes,
			"status":     status(e.Compliant),
		}))
	}
	return entries
}

func (s *CheckService) recordFailure(ctx context.Context, projectRef string, t domain.CheckType, action string, cause error) {
	result := map[string]any{"error": cause.Error()}
	var rq *port.RemoteQueryError
	if errors.As(cause, &rq) {
		result["status_code"] = rq.StatusCode
		result["detail"] = rq.Message
		if rq.Body != "" {
			result["body"] = rq.Body
		}
	}
	entry := s.entry(action+domain.AuditErrorSuffix, t, result)
	if err := s.audit.Append(ctx, projectRef, []domain.LogEntry{entry}); err != nil {
		slog.Error("audit append failed", "check", t, "project", projectRef, "error", err)
	}
	slog.Warn("check failed", "check", t, "project", projectRef, "action", action, "error", cause)
}

func (s *CheckService) entry(action string, t domain.CheckType, result map[string]any) domain.LogEntry {
	raw, err := json.Marshal(result)
	if err != nil {
		raw = json.RawMessage(fmt.Sprintf(`{"error":%q}`, err.Error()))
	}
	return domain.LogEntry{
		ID:        uuid.NewString(),
		Timestamp: s.now().UTC(),
		Action:    action,
		Result:    raw,
		CheckType: t,
	}
}

func status(compliant bool) string {
	if compliant {
		return "pass"
	}
	return "fail"
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
