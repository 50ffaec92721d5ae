package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/calebmorrow/daylight/backend/internal/model/child"
	"github.com/calebmorrow/daylight/backend/internal/model/session"
	"github.com/calebmorrow/daylight/backend/internal/storage"
)

// Entry is one child on the observer's daily roster with the derived
// session status. ReportID stays empty for a completed session whose report
// was never submitted; that state is allowed and deliberately visible.
type Entry struct {
	Child         child.Child      `json:"child"`
	SessionStatus session.Status   `json:"sessionStatus"`
	Session       *session.Session `json:"session,omitempty"`
	ReportID      string           `json:"reportId,omitempty"`
}

// Schedule is the observer's view of the current day.
type Schedule struct {
	TotalChildren     int     `json:"totalChildren"`
	SessionsCompleted int     `json:"sessionsCompleted"`
	SessionsPending   int     `json:"sessionsPending"`
	Entries           []Entry `json:"schedule"`
}

// Service derives the daily schedule from the roster and session store.
type Service struct {
	children child.Store
	sessions storage.SessionStore
	reports  storage.ReportStore

	Now func() time.Time
}

// NewService wires the schedule provider.
func NewService(children child.Store, sessions storage.SessionStore, reports storage.ReportStore) *Service {
	return &Service{children: children, sessions: sessions, reports: reports, Now: time.Now}
}

// ForObserver assembles the observer's schedule for the given day. A child
// with no session today is pending; otherwise the entry reflects the most
// recent session's status.
func (s *Service) ForObserver(ctx context.Context, observerID string, day time.Time) (Schedule, error) {
	if day.IsZero() {
		day = s.Now()
	}

	assigned := s.children.ListByObserver(observerID)
	sessions, err := s.sessions.ListSessionsByObserverDay(ctx, observerID, day)
	if err != nil {
		return Schedule{}, err
	}

	// Newest first, so the first hit per child wins.
	latest := make(map[string]session.Session, len(sessions))
	for _, sess := range sessions {
		if _, ok := latest[sess.ChildID]; !ok {
			latest[sess.ChildID] = sess
		}
	}

	sched := Schedule{
		TotalChildren: len(assigned),
		Entries:       make([]Entry, 0, len(assigned)),
	}
	for _, c := range assigned {
		entry := Entry{Child: c, SessionStatus: session.StatusPending}
		if sess, ok := latest[c.ID]; ok {
			sessCopy := sess
			entry.Session = &sessCopy
			entry.SessionStatus = sess.Status
			if sess.Status == session.StatusCompleted {
				r, err := s.reports.GetReportBySession(ctx, sess.ID)
				switch {
				case err == nil:
					entry.ReportID = r.ID
				case errors.Is(err, storage.ErrReportNotFound):
					// completed without report: allowed, flagged by absence
				default:
					return Schedule{}, err
				}
			}
		}
		if entry.SessionStatus == session.StatusCompleted {
			sched.SessionsCompleted++
		} else {
			sched.SessionsPending++
		}
		sched.Entries = append(sched.Entries, entry)
	}
	return sched, nil
}
