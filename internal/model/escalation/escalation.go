package escalation

import (
	"fmt"
	"strings"
	"time"
)

// Severity grades an escalation for downstream urgency routing. The set is
// closed: anything outside it is rejected before submission.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// ParseSeverity maps raw input onto the closed severity set.
func ParseSeverity(raw string) (Severity, error) {
	value := Severity(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := severityRank[value]; !ok {
		return "", fmt.Errorf("unknown severity %q", raw)
	}
	return value, nil
}

// AtLeast reports whether s is as urgent as threshold. Used by routing to
// decide who gets paged.
func (s Severity) AtLeast(threshold Severity) bool {
	return severityRank[s] >= severityRank[threshold]
}

// Status tracks the escalation's own lifecycle, independent of any session.
type Status string

const (
	StatusOpen          Status = "open"
	StatusInvestigating Status = "investigating"
	StatusResolved      Status = "resolved"
)

// CanTransition reports whether a status change follows the
// order open, investigating, resolved. Reopening is not supported.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusOpen:
		return next == StatusInvestigating || next == StatusResolved
	case StatusInvestigating:
		return next == StatusResolved
	default:
		return false
	}
}

// Escalation is an urgent-concern report. It may reference the session it
// was raised from, but its lifecycle never touches the session's.
type Escalation struct {
	ID                    string    `json:"id"`
	ChildID               string    `json:"childId"`
	ObserverID            string    `json:"observerId"`
	SessionID             string    `json:"sessionId,omitempty"`
	Type                  string    `json:"type"`
	Severity              Severity  `json:"severity"`
	Description           string    `json:"description"`
	ObservedBehaviors     string    `json:"observedBehaviors"`
	ImmediateActionsTaken string    `json:"immediateActionsTaken,omitempty"`
	Status                Status    `json:"status"`
	Resolution            string    `json:"resolution,omitempty"`
	CreatedAt             time.Time `json:"createdAt"`
	UpdatedAt             time.Time `json:"updatedAt"`
}
