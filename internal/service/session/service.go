package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/calebmorrow/daylight/backend/internal/model/child"
	"github.com/calebmorrow/daylight/backend/internal/model/session"
	"github.com/calebmorrow/daylight/backend/internal/storage"
)

var (
	ErrChildNotFound        = errors.New("child not found")
	ErrReadinessNotMet      = errors.New("readiness checklist not met")
	ErrSessionNotFound      = errors.New("session not found")
	ErrNotSessionOwner      = errors.New("session belongs to another observer")
	ErrSessionNotActive     = errors.New("session is not in progress")
	ErrMissingClosingFields = errors.New("mood_observed and engagement_level are required")
)

// StartResult reports the server's verdict on a start attempt. A refusal
// (CanStart false) is authoritative but not an error: the observer is told
// why and sent back to the schedule.
type StartResult struct {
	CanStart bool            `json:"canStartSession"`
	Reason   string          `json:"reason,omitempty"`
	Session  session.Session `json:"session,omitzero"`
}

// EndInput carries the mandatory closing fields for a session.
type EndInput struct {
	DurationMinutes int
	MoodObserved    string
	EngagementLevel string
	KeyObservations string
}

// Service is the server-side authority for the session lifecycle.
type Service struct {
	store    storage.SessionStore
	children child.Store

	// Now is swappable for tests.
	Now func() time.Time
}

// NewService wires the session authority to its stores.
func NewService(store storage.SessionStore, children child.Store) *Service {
	return &Service{store: store, children: children, Now: time.Now}
}

// Start re-checks the readiness gate and provisions an in_progress session.
// The checklist arrives in full for audit even though the client already
// refused locally on any unmet item.
func (s *Service) Start(ctx context.Context, observerID, childID string, check session.ReadinessCheck) (StartResult, error) {
	if childID == "" {
		return StartResult{}, ErrChildNotFound
	}
	if _, ok := s.children.FindByID(childID); !ok {
		return StartResult{}, ErrChildNotFound
	}
	if !check.Passed() {
		return StartResult{}, fmt.Errorf("%w: %s", ErrReadinessNotMet, strings.Join(check.Unmet(), ", "))
	}

	if active, ok, err := s.store.ActiveSessionForChild(ctx, childID); err != nil {
		return StartResult{}, err
	} else if ok {
		return StartResult{
			CanStart: false,
			Reason:   fmt.Sprintf("child already has session %s in progress", active.ID),
		}, nil
	}

	sess := session.Session{
		ID:         uuid.NewString(),
		ChildID:    childID,
		ObserverID: observerID,
		Status:     session.StatusInProgress,
		StartedAt:  s.Now().UTC(),
	}
	if err := s.store.CreateSession(ctx, sess); err != nil {
		return StartResult{}, err
	}

	// Checklist audit trail; the check itself is ephemeral.
	log.Printf("[session] started id=%s child=%s observer=%s personal_state=%s checklist_notes=%q",
		sess.ID, childID, observerID, check.PersonalState, check.Notes)

	return StartResult{CanStart: true, Session: sess}, nil
}

// Get returns one of the observer's sessions.
func (s *Service) Get(ctx context.Context, observerID, sessionID string) (session.Session, error) {
	sess, err := s.store.GetSession(ctx, sessionID)
	if errors.Is(err, storage.ErrSessionNotFound) {
		return session.Session{}, ErrSessionNotFound
	}
	if err != nil {
		return session.Session{}, err
	}
	if sess.ObserverID != observerID {
		return session.Session{}, ErrNotSessionOwner
	}
	return sess, nil
}

// UpdateNotes replaces the free-form notes on a live session. Notes carry
// no validation at all.
func (s *Service) UpdateNotes(ctx context.Context, observerID, sessionID, notes string) (session.Session, error) {
	sess, err := s.Get(ctx, observerID, sessionID)
	if err != nil {
		return session.Session{}, err
	}
	if sess.Status != session.StatusInProgress {
		return session.Session{}, ErrSessionNotActive
	}
	sess.Notes = notes
	if err := s.store.UpdateSession(ctx, sess); err != nil {
		return session.Session{}, err
	}
	return sess, nil
}

// End closes a live session. Both closing fields must be present or the
// transition is refused; duration falls back to the server clock when the
// client did not supply its own ceil value.
func (s *Service) End(ctx context.Context, observerID, sessionID string, input EndInput) (session.Session, error) {
	sess, err := s.Get(ctx, observerID, sessionID)
	if err != nil {
		return session.Session{}, err
	}
	if !sess.Status.CanTransition(session.StatusCompleted) {
		return session.Session{}, ErrSessionNotActive
	}
	if strings.TrimSpace(input.MoodObserved) == "" || strings.TrimSpace(input.EngagementLevel) == "" {
		return session.Session{}, ErrMissingClosingFields
	}

	now := s.Now().UTC()
	duration := input.DurationMinutes
	if duration <= 0 {
		duration = session.DurationMinutes(session.Elapsed(now, sess.StartedAt))
	}

	sess.Status = session.StatusCompleted
	sess.EndedAt = now
	sess.DurationMinutes = duration
	sess.MoodObserved = input.MoodObserved
	sess.EngagementLevel = input.EngagementLevel
	sess.KeyObservations = input.KeyObservations

	if err := s.store.UpdateSession(ctx, sess); err != nil {
		return session.Session{}, err
	}
	log.Printf("[session] completed id=%s child=%s duration_min=%d", sess.ID, sess.ChildID, duration)
	return sess, nil
}
