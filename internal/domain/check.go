package domain

import (
	"fmt"
	"strings"
)

// CheckType identifies one of the compliance checks.
type CheckType string

// Check type constants.
const (
	CheckRLS  CheckType = "RLS"
	CheckMFA  CheckType = "MFA"
	CheckPITR CheckType = "PITR"
)

// CheckInfo describes a registered check to clients.
type CheckInfo struct {
	Type        CheckType `json:"type"`
	Description string    `json:"description"`
	Actions     []string  `json:"actions,omitempty"`
}

// ParseCheckType accepts a check type in any letter case.
func ParseCheckType(s string) (CheckType, error) {
	t := CheckType(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case CheckRLS, CheckMFA, CheckPITR:
		return t, nil
	}
	return "", fmt.Errorf("unknown check type %q", s)
}

// Entity is the subject of a compliance check: a table, a user session or a
// project. Entities are produced fresh on every evaluation and never cached.
type Entity struct {
	ID         string         `json:"id"`
	Compliant  bool           `json:"compliant"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// CheckReport is the outcome of one evaluation.
type CheckReport struct {
	CheckType    CheckType `json:"type"`
	ProjectRef   string    `json:"project_ref"`
	Entities     []Entity  `json:"entities"`
	NonCompliant []Entity  `json:"non_compliant"`

	// AuditError is set when the result could not be written to the audit
	// log. The report itself is still valid.
	AuditError string `json:"audit_error,omitempty"`
}

// NewCheckReport builds a report and derives the non-compliant subset.
func NewCheckReport(t CheckType, projectRef string, entities []Entity) *CheckReport {
	r := &CheckReport{
		CheckType:    t,
		ProjectRef:   projectRef,
		Entities:     entities,
		NonCompliant: []Entity{},
	}
	if r.Entities == nil {
		r.Entities = []Entity{}
	}
	for _, e := range entities {
		if !e.Compliant {
			r.NonCompliant = append(r.NonCompliant, e)
		}
	}
	return r
}

// CheckOutcome pairs a check type with either its report or its error, so
// one failing check does not hide its siblings.
type CheckOutcome struct {
	CheckType CheckType    `json:"type"`
	Report    *CheckReport `json:"report,omitempty"`
	Error     string       `json:"error,omitempty"`
}
