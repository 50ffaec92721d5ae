// Package memory implements storage.Store with in-process maps, suitable
// for development and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/calebmorrow/daylight/backend/internal/model/escalation"
	"github.com/calebmorrow/daylight/backend/internal/model/report"
	"github.com/calebmorrow/daylight/backend/internal/model/session"
	"github.com/calebmorrow/daylight/backend/internal/storage"
)

// Store keeps all records in memory guarded by a single RWMutex.
type Store struct {
	mu          sync.RWMutex
	sessions    map[string]session.Session
	reports     map[string]report.DailyReport
	escalations map[string]escalation.Escalation
}

// NewStore bootstraps an empty in-memory store.
func NewStore() *Store {
	return &Store{
		sessions:    make(map[string]session.Session),
		reports:     make(map[string]report.DailyReport),
		escalations: make(map[string]escalation.Escalation),
	}
}

// Close satisfies storage.Store; nothing to release.
func (s *Store) Close() error { return nil }

// CreateSession stores a new session record.
func (s *Store) CreateSession(_ context.Context, sess session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return nil
}

// GetSession retrieves a session by identifier.
func (s *Store) GetSession(_ context.Context, id string) (session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return session.Session{}, storage.ErrSessionNotFound
	}
	return sess, nil
}

// UpdateSession replaces a stored session.
func (s *Store) UpdateSession(_ context.Context, sess session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.ID]; !ok {
		return storage.ErrSessionNotFound
	}
	s.sessions[sess.ID] = sess
	return nil
}

// ListSessionsByObserverDay filters the observer's sessions to one UTC day.
func (s *Store) ListSessionsByObserverDay(_ context.Context, observerID string, day time.Time) ([]session.Session, error) {
	start, end := storage.DayWindow(day)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []session.Session
	for _, sess := range s.sessions {
		if sess.ObserverID != observerID {
			continue
		}
		if sess.StartedAt.Before(start) || !sess.StartedAt.Before(end) {
			continue
		}
		matched = append(matched, sess)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].StartedAt.After(matched[j].StartedAt)
	})
	return matched, nil
}

// ActiveSessionForChild probes for an in_progress session for the child.
func (s *Store) ActiveSessionForChild(_ context.Context, childID string) (session.Session, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sess := range s.sessions {
		if sess.ChildID == childID && sess.Status == session.StatusInProgress {
			return sess, true, nil
		}
	}
	return session.Session{}, false, nil
}

// CreateReport stores a daily report.
func (s *Store) CreateReport(_ context.Context, r report.DailyReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[r.ID] = r
	return nil
}

// GetReportBySession finds the report linked to a session, if any.
func (s *Store) GetReportBySession(_ context.Context, sessionID string) (report.DailyReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.reports {
		if r.SessionID != "" && r.SessionID == sessionID {
			return r, nil
		}
	}
	return report.DailyReport{}, storage.ErrReportNotFound
}

// ListReportsByObserver returns the observer's reports, newest first.
func (s *Store) ListReportsByObserver(_ context.Context, observerID string) ([]report.DailyReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []report.DailyReport
	for _, r := range s.reports {
		if r.ObserverID == observerID {
			matched = append(matched, r)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return matched, nil
}

// CreateEscalation stores an escalation.
func (s *Store) CreateEscalation(_ context.Context, e escalation.Escalation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.escalations[e.ID] = e
	return nil
}

// GetEscalation retrieves an escalation by identifier.
func (s *Store) GetEscalation(_ context.Context, id string) (escalation.Escalation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.escalations[id]
	if !ok {
		return escalation.Escalation{}, storage.ErrEscalationNotFound
	}
	return e, nil
}

// UpdateEscalation replaces a stored escalation.
func (s *Store) UpdateEscalation(_ context.Context, e escalation.Escalation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.escalations[e.ID]; !ok {
		return storage.ErrEscalationNotFound
	}
	s.escalations[e.ID] = e
	return nil
}

// ListEscalationsByObserver returns the observer's escalations, newest first.
func (s *Store) ListEscalationsByObserver(_ context.Context, observerID string) ([]escalation.Escalation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []escalation.Escalation
	for _, e := range s.escalations {
		if e.ObserverID == observerID {
			matched = append(matched, e)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return matched, nil
}
