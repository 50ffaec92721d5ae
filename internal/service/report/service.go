package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/calebmorrow/daylight/backend/internal/model/child"
	"github.com/calebmorrow/daylight/backend/internal/model/report"
	"github.com/calebmorrow/daylight/backend/internal/model/session"
	"github.com/calebmorrow/daylight/backend/internal/storage"
)

var (
	ErrChildNotFound       = errors.New("child not found")
	ErrSessionNotFound     = errors.New("referenced session not found")
	ErrSessionNotCompleted = errors.New("referenced session is not completed")
	ErrMissingFields       = errors.New("missing required report fields")
	ErrInvalidReportDate   = errors.New("invalid report date")
	ErrReportExists        = errors.New("session already has a report")
)

// SubmitInput carries the structured daily report. SessionID is optional on
// the wire but, when present, must point at the observer's own completed
// session for the same child.
type SubmitInput struct {
	ChildID         string
	SessionID       string
	ReportDate      string
	SessionSummary  string
	ChildMood       string
	EngagementLevel string
	KeyObservations string
	Concerns        string
	PositiveMoments string
	Recommendations string
}

// Service finalizes the mandatory post-session report.
type Service struct {
	store    storage.ReportStore
	sessions storage.SessionStore
	children child.Store

	Now func() time.Time
}

// NewService wires the report finalizer.
func NewService(store storage.ReportStore, sessions storage.SessionStore, children child.Store) *Service {
	return &Service{store: store, sessions: sessions, children: children, Now: time.Now}
}

// Submit validates and files a daily report with review status pending.
func (s *Service) Submit(ctx context.Context, observerID string, input SubmitInput) (report.DailyReport, error) {
	if input.ChildID == "" {
		return report.DailyReport{}, ErrChildNotFound
	}
	if _, ok := s.children.FindByID(input.ChildID); !ok {
		return report.DailyReport{}, ErrChildNotFound
	}

	var missing []string
	if strings.TrimSpace(input.SessionSummary) == "" {
		missing = append(missing, "session_summary")
	}
	if strings.TrimSpace(input.ChildMood) == "" {
		missing = append(missing, "child_mood")
	}
	if strings.TrimSpace(input.EngagementLevel) == "" {
		missing = append(missing, "engagement_level")
	}
	if strings.TrimSpace(input.KeyObservations) == "" {
		missing = append(missing, "key_observations")
	}
	if len(missing) > 0 {
		return report.DailyReport{}, fmt.Errorf("%w: %s", ErrMissingFields, strings.Join(missing, ", "))
	}

	reportDate := strings.TrimSpace(input.ReportDate)
	if reportDate == "" {
		reportDate = s.Now().UTC().Format(report.DateLayout)
	} else if _, err := time.Parse(report.DateLayout, reportDate); err != nil {
		return report.DailyReport{}, fmt.Errorf("%w: %q", ErrInvalidReportDate, input.ReportDate)
	}

	if input.SessionID != "" {
		sess, err := s.sessions.GetSession(ctx, input.SessionID)
		if errors.Is(err, storage.ErrSessionNotFound) {
			return report.DailyReport{}, ErrSessionNotFound
		}
		if err != nil {
			return report.DailyReport{}, err
		}
		if sess.ChildID != input.ChildID {
			return report.DailyReport{}, fmt.Errorf("%w: session belongs to a different child", ErrSessionNotFound)
		}
		if sess.ObserverID != observerID {
			return report.DailyReport{}, fmt.Errorf("%w: session belongs to a different observer", ErrSessionNotFound)
		}
		if sess.Status != session.StatusCompleted {
			return report.DailyReport{}, ErrSessionNotCompleted
		}
		if _, err := s.store.GetReportBySession(ctx, input.SessionID); err == nil {
			return report.DailyReport{}, ErrReportExists
		} else if !errors.Is(err, storage.ErrReportNotFound) {
			return report.DailyReport{}, err
		}
	}

	r := report.DailyReport{
		ID:              uuid.NewString(),
		ChildID:         input.ChildID,
		ObserverID:      observerID,
		SessionID:       input.SessionID,
		ReportDate:      reportDate,
		SessionSummary:  input.SessionSummary,
		ChildMood:       input.ChildMood,
		EngagementLevel: input.EngagementLevel,
		KeyObservations: input.KeyObservations,
		Concerns:        input.Concerns,
		PositiveMoments: input.PositiveMoments,
		Recommendations: input.Recommendations,
		ReviewStatus:    report.ReviewPending,
		CreatedAt:       s.Now().UTC(),
	}
	if err := s.store.CreateReport(ctx, r); err != nil {
		return report.DailyReport{}, err
	}
	return r, nil
}

// List returns the observer's reports, newest first.
func (s *Service) List(ctx context.Context, observerID string) ([]report.DailyReport, error) {
	return s.store.ListReportsByObserver(ctx, observerID)
}
