package check

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/arturoeanton/supabase-guard/internal/domain"
	"github.com/arturoeanton/supabase-guard/internal/port"
)

// aalHighest is the top authenticator assurance level.
const aalHighest = "aal2"

// mfaQuery returns each user's most recent session. created_at is passed
// through as text; its format depends on the remote endpoint.
const mfaQuery = `
SELECT DISTINCT ON (s.user_id)
  s.id AS session_id,
  s.user_id,
  s.aal,
  s.created_at::text AS created_at,
  u.email AS user_email,
  u.phone AS user_phone
FROM auth.sessions s
JOIN auth.users u ON u.id = s.user_id
ORDER BY s.user_id, s.created_at DESC;`

// MFACheck reports users whose most recent session did not reach aal2.
type MFACheck struct {
	client port.ProjectClient
}

// NewMFACheck creates the MFA check.
func NewMFACheck(client port.ProjectClient) *MFACheck {
	return &MFACheck{client: client}
}

func (m *MFACheck) Type() domain.CheckType { return domain.CheckMFA }
func (m *MFACheck) Description() string {
	return "Every user's latest session must be authenticated with a second factor"
}
func (m *MFACheck) AuditAction() string { return domain.AuditActionMFACheck }

type sessionRow struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	AAL       string    `json:"aal"`
	CreatedAt string    `json:"created_at"`
	Email     string    `json:"user_email"`
	Phone     *string   `json:"user_phone"`
}

// Evaluate returns one entity per user, built from that user's latest session.
func (m *MFACheck) Evaluate(ctx context.Context, cred *domain.Credential, projectRef string) ([]domain.Entity, error) {
	raw, err := m.client.Run(ctx, cred, projectRef, mfaQuery)
	if err != nil {
		return nil, fmt.Errorf("mfa check: %w", err)
	}

	var rows []sessionRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("mfa check: decode rows: %w", err)
	}

	latest := latestSessions(rows)
	entities := make([]domain.Entity, 0, len(latest))
	for _, s := range latest {
		phone := ""
		if s.Phone != nil {
			phone = *s.Phone
		}
		entities = append(entities, domain.Entity{
			ID:        s.UserID,
			Compliant: s.AAL == aalHighest,
			Attributes: map[string]any{
				"session_id": s.SessionID,
				"user_email": s.Email,
				"user_phone": phone,
				"aal":        s.AAL,
				"created_at": s.CreatedAt,
			},
		})
	}
	return entities, nil
}

// latestSessions keeps the first row per user, ordered by user id. Rows
// arrive newest first within each user.
func latestSessions(rows []sessionRow) []sessionRow {
	byUser := make(map[string]sessionRow, len(rows))
	for _, row := range rows {
		if _, ok := byUser[row.UserID]; !ok {
			byUser[row.UserID] = row
		}
	}
	out := make([]sessionRow, 0, len(byUser))
	for _, row := range byUser {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}
