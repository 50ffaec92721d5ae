package escalation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/calebmorrow/daylight/backend/internal/model/child"
	"github.com/calebmorrow/daylight/backend/internal/model/escalation"
	"github.com/calebmorrow/daylight/backend/internal/storage"
)

var (
	ErrChildNotFound      = errors.New("child not found")
	ErrSessionNotFound    = errors.New("referenced session not found")
	ErrMissingFields      = errors.New("missing required escalation fields")
	ErrEscalationNotFound = errors.New("escalation not found")
	ErrInvalidTransition  = errors.New("invalid escalation status transition")
	ErrInvalidSeverity    = errors.New("invalid severity")
)

// Escalations at or above this severity get an explicit log line for the
// on-call supervisor feed.
const supervisorNoteSeverity = escalation.SeverityHigh

// Notifier receives every created escalation for fan-out to supervising
// consumers. Implementations must not block.
type Notifier interface {
	EscalationCreated(e escalation.Escalation)
}

// CreateInput carries a new concern report. SessionID is optional: an
// escalation may be raised from a live session or standalone from the
// child's profile.
type CreateInput struct {
	ChildID               string
	SessionID             string
	Type                  string
	Severity              string
	Description           string
	ObservedBehaviors     string
	ImmediateActionsTaken string
}

// Service owns the escalation side-channel. It never touches session state.
type Service struct {
	store    storage.EscalationStore
	sessions storage.SessionStore
	children child.Store
	notifier Notifier

	Now func() time.Time
}

// NewService wires the escalation channel. notifier may be nil.
func NewService(store storage.EscalationStore, sessions storage.SessionStore, children child.Store, notifier Notifier) *Service {
	return &Service{store: store, sessions: sessions, children: children, notifier: notifier, Now: time.Now}
}

// Create validates and files a concern with status open.
func (s *Service) Create(ctx context.Context, observerID string, input CreateInput) (escalation.Escalation, error) {
	if input.ChildID == "" {
		return escalation.Escalation{}, ErrChildNotFound
	}
	if _, ok := s.children.FindByID(input.ChildID); !ok {
		return escalation.Escalation{}, ErrChildNotFound
	}

	var missing []string
	if strings.TrimSpace(input.Type) == "" {
		missing = append(missing, "escalation_type")
	}
	if strings.TrimSpace(input.Description) == "" {
		missing = append(missing, "description")
	}
	if strings.TrimSpace(input.ObservedBehaviors) == "" {
		missing = append(missing, "observed_behaviors")
	}
	if len(missing) > 0 {
		return escalation.Escalation{}, fmt.Errorf("%w: %s", ErrMissingFields, strings.Join(missing, ", "))
	}

	severity, err := escalation.ParseSeverity(input.Severity)
	if err != nil {
		return escalation.Escalation{}, fmt.Errorf("%w: %v", ErrInvalidSeverity, err)
	}

	if input.SessionID != "" {
		sess, err := s.sessions.GetSession(ctx, input.SessionID)
		if errors.Is(err, storage.ErrSessionNotFound) {
			return escalation.Escalation{}, ErrSessionNotFound
		}
		if err != nil {
			return escalation.Escalation{}, err
		}
		if sess.ChildID != input.ChildID {
			return escalation.Escalation{}, fmt.Errorf("%w: session belongs to a different child", ErrSessionNotFound)
		}
	}

	now := s.Now().UTC()
	e := escalation.Escalation{
		ID:                    uuid.NewString(),
		ChildID:               input.ChildID,
		ObserverID:            observerID,
		SessionID:             input.SessionID,
		Type:                  input.Type,
		Severity:              severity,
		Description:           input.Description,
		ObservedBehaviors:     input.ObservedBehaviors,
		ImmediateActionsTaken: input.ImmediateActionsTaken,
		Status:                escalation.StatusOpen,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err := s.store.CreateEscalation(ctx, e); err != nil {
		return escalation.Escalation{}, err
	}

	if e.Severity.AtLeast(supervisorNoteSeverity) {
		log.Printf("[escalation] urgent concern id=%s child=%s severity=%s", e.ID, e.ChildID, e.Severity)
	}
	if s.notifier != nil {
		s.notifier.EscalationCreated(e)
	}
	return e, nil
}

// List returns the observer's escalations with their current status.
func (s *Service) List(ctx context.Context, observerID string) ([]escalation.Escalation, error) {
	return s.store.ListEscalationsByObserver(ctx, observerID)
}

// UpdateStatus advances an escalation for the supervising party. The order
// open, investigating, resolved is enforced; resolution text is optional.
func (s *Service) UpdateStatus(ctx context.Context, id string, next escalation.Status, resolution string) (escalation.Escalation, error) {
	e, err := s.store.GetEscalation(ctx, id)
	if errors.Is(err, storage.ErrEscalationNotFound) {
		return escalation.Escalation{}, ErrEscalationNotFound
	}
	if err != nil {
		return escalation.Escalation{}, err
	}
	if !e.Status.CanTransition(next) {
		return escalation.Escalation{}, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, e.Status, next)
	}

	e.Status = next
	if resolution != "" {
		e.Resolution = resolution
	}
	e.UpdatedAt = s.Now().UTC()
	if err := s.store.UpdateEscalation(ctx, e); err != nil {
		return escalation.Escalation{}, err
	}
	return e, nil
}
