package session

import (
	"fmt"
	"time"
)

// Status tracks where a session sits in its lifecycle.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// ParseStatus validates a wire status value.
func ParseStatus(raw string) (Status, error) {
	switch Status(raw) {
	case StatusPending, StatusInProgress, StatusCompleted:
		return Status(raw), nil
	}
	return "", fmt.Errorf("unknown session status %q", raw)
}

// CanTransition reports whether a status change is legal. Sessions only
// move forward; there is no way back to pending once started.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusInProgress
	case StatusInProgress:
		return next == StatusCompleted
	default:
		return false
	}
}

// Session captures one timed check-in between an observer and a child.
type Session struct {
	ID              string    `json:"id"`
	ChildID         string    `json:"childId"`
	ObserverID      string    `json:"observerId"`
	Status          Status    `json:"status"`
	StartedAt       time.Time `json:"startedAt"`
	EndedAt         time.Time `json:"endedAt,omitempty"`
	DurationMinutes int       `json:"durationMinutes,omitempty"`
	MoodObserved    string    `json:"moodObserved,omitempty"`
	EngagementLevel string    `json:"engagementLevel,omitempty"`
	KeyObservations string    `json:"keyObservations,omitempty"`
	Notes           string    `json:"notes,omitempty"`
}

// ReadinessCheck is the pre-session checklist. It authorizes the
// transition from pending to in_progress and is stored only for audit.
type ReadinessCheck struct {
	EnvironmentReady      bool   `json:"environmentReady"`
	MaterialsReady        bool   `json:"materialsReady"`
	DistractionsMinimized bool   `json:"distractionsMinimized"`
	PersonalState         string `json:"personalState"`
	Notes                 string `json:"notes,omitempty"`
}

// Passed reports whether every gate condition is met.
func (c ReadinessCheck) Passed() bool {
	return c.EnvironmentReady && c.MaterialsReady && c.DistractionsMinimized
}

// Unmet lists the failed checklist items for surfacing to the observer.
func (c ReadinessCheck) Unmet() []string {
	var unmet []string
	if !c.EnvironmentReady {
		unmet = append(unmet, "environment_ready")
	}
	if !c.MaterialsReady {
		unmet = append(unmet, "materials_ready")
	}
	if !c.DistractionsMinimized {
		unmet = append(unmet, "distractions_minimized")
	}
	return unmet
}

// Elapsed recomputes the live clock from the start timestamp. The clock is
// a pure function of (now, startedAt) so a reload or device sleep cannot
// corrupt it; callers re-invoke this on every tick.
func Elapsed(now, startedAt time.Time) time.Duration {
	if startedAt.IsZero() || now.Before(startedAt) {
		return 0
	}
	return now.Sub(startedAt)
}

// DurationMinutes rounds elapsed time up to whole minutes. A 125 second
// session bills as 3 minutes.
func DurationMinutes(elapsed time.Duration) int {
	if elapsed <= 0 {
		return 0
	}
	seconds := int(elapsed / time.Second)
	if elapsed%time.Second > 0 {
		seconds++
	}
	return (seconds + 59) / 60
}
