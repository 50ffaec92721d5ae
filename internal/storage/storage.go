// Package storage defines the persistence contracts shared by the memory
// and sqlite implementations.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/calebmorrow/daylight/backend/internal/model/escalation"
	"github.com/calebmorrow/daylight/backend/internal/model/report"
	"github.com/calebmorrow/daylight/backend/internal/model/session"
)

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrReportNotFound     = errors.New("report not found")
	ErrEscalationNotFound = errors.New("escalation not found")
)

// SessionStore persists check-in sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, s session.Session) error
	GetSession(ctx context.Context, id string) (session.Session, error)
	UpdateSession(ctx context.Context, s session.Session) error
	// ListSessionsByObserverDay returns the observer's sessions whose start
	// falls on the given UTC day, newest first.
	ListSessionsByObserverDay(ctx context.Context, observerID string, day time.Time) ([]session.Session, error)
	// ActiveSessionForChild probes for an in_progress session regardless of
	// observer; it backs the one-active-session-per-child check.
	ActiveSessionForChild(ctx context.Context, childID string) (session.Session, bool, error)
}

// ReportStore persists daily reports.
type ReportStore interface {
	CreateReport(ctx context.Context, r report.DailyReport) error
	GetReportBySession(ctx context.Context, sessionID string) (report.DailyReport, error)
	ListReportsByObserver(ctx context.Context, observerID string) ([]report.DailyReport, error)
}

// EscalationStore persists urgent-concern escalations.
type EscalationStore interface {
	CreateEscalation(ctx context.Context, e escalation.Escalation) error
	GetEscalation(ctx context.Context, id string) (escalation.Escalation, error)
	UpdateEscalation(ctx context.Context, e escalation.Escalation) error
	ListEscalationsByObserver(ctx context.Context, observerID string) ([]escalation.Escalation, error)
}

// Store aggregates every persistence concern behind one handle.
type Store interface {
	SessionStore
	ReportStore
	EscalationStore
	Close() error
}

// DayWindow returns the UTC [start, end) bounds of the day containing t.
func DayWindow(t time.Time) (time.Time, time.Time) {
	utc := t.UTC()
	start := time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.Add(24 * time.Hour)
}
