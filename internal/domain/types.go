// Package domain contains the core business entities for clinical-trial
// fairness assessment: participant demographics, fairness metrics, and
// the ACCEPT/REVIEW/REJECT verdict model.
package domain

import "errors"

// Decision represents the fairness verdict assigned to a trial dataset.
// A decision is terminal per scoring call; there are no transitions
// between decisions across calls.
type Decision string

const (
	ACCEPT Decision = "ACCEPT"
	REVIEW Decision = "REVIEW"
	REJECT Decision = "REJECT"
)

// Validation errors for verdict integrity
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidDecision = errors.New("invalid fairness decision")
)

// IsValid validates that the Decision is one of the three recognized
// verdicts. Only valid decisions may enter the audit trail.
func (d Decision) IsValid() bool {
	switch d {
	case ACCEPT, REVIEW, REJECT:
		return true
	default:
		return false
	}
}

// String returns the string representation of the decision.
func (d Decision) String() string {
	return string(d)
}

// RequiresManualReview reports whether the verdict needs a human
// reviewer before the trial can proceed.
func (d Decision) RequiresManualReview() bool {
	switch d {
	case REVIEW, REJECT:
		return true
	default:
		return false
	}
}

// LogFields returns structured logging fields for audit trails.
func (d Decision) LogFields() map[string]any {
	return map[string]any{
		"decision":        string(d),
		"is_valid":        d.IsValid(),
		"requires_review": d.RequiresManualReview(),
	}
}
