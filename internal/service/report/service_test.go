package report_test

import (
	"context"
	"errors"
	"testing"

	"github.com/calebmorrow/daylight/backend/internal/model/child"
	reportModel "github.com/calebmorrow/daylight/backend/internal/model/report"
	sessionModel "github.com/calebmorrow/daylight/backend/internal/model/session"
	reportService "github.com/calebmorrow/daylight/backend/internal/service/report"
	"github.com/calebmorrow/daylight/backend/internal/storage/memory"
)

const observerID = "obs-demo"

func setup() (*reportService.Service, *memory.Store) {
	store := memory.NewStore()
	svc := reportService.NewService(store, store, child.NewMemoryStore(child.Seed()))
	return svc, store
}

func validInput() reportService.SubmitInput {
	return reportService.SubmitInput{
		ChildID:         "child-amara",
		ReportDate:      "2026-03-04",
		SessionSummary:  "short but focused conversation",
		ChildMood:       "calm",
		EngagementLevel: "medium",
		KeyObservations: "mentioned trouble sleeping",
	}
}

func storeSession(t *testing.T, store *memory.Store, status sessionModel.Status) string {
	t.Helper()
	sess := sessionModel.Session{
		ID:         "sess-1",
		ChildID:    "child-amara",
		ObserverID: observerID,
		Status:     status,
	}
	if err := store.CreateSession(context.Background(), sess); err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}
	return sess.ID
}

func TestSubmitDefaultsToPendingReview(t *testing.T) {
	svc, _ := setup()

	created, err := svc.Submit(context.Background(), observerID, validInput())
	if err != nil {
		t.Fatalf("Submit err: %v", err)
	}
	if created.ReviewStatus != reportModel.ReviewPending {
		t.Fatalf("review status = %s, want pending_review", created.ReviewStatus)
	}
	if created.ID == "" {
		t.Fatal("missing report id")
	}
}

func TestSubmitRejectsMissingFields(t *testing.T) {
	svc, _ := setup()

	input := validInput()
	input.SessionSummary = ""
	input.KeyObservations = "  "
	if _, err := svc.Submit(context.Background(), observerID, input); !errors.Is(err, reportService.ErrMissingFields) {
		t.Fatalf("err = %v, want ErrMissingFields", err)
	}
}

func TestSubmitRejectsBadDate(t *testing.T) {
	svc, _ := setup()

	input := validInput()
	input.ReportDate = "03/04/2026"
	if _, err := svc.Submit(context.Background(), observerID, input); !errors.Is(err, reportService.ErrInvalidReportDate) {
		t.Fatalf("err = %v, want ErrInvalidReportDate", err)
	}
}

func TestSubmitRequiresCompletedSession(t *testing.T) {
	svc, store := setup()
	sessionID := storeSession(t, store, sessionModel.StatusInProgress)

	input := validInput()
	input.SessionID = sessionID
	if _, err := svc.Submit(context.Background(), observerID, input); !errors.Is(err, reportService.ErrSessionNotCompleted) {
		t.Fatalf("err = %v, want ErrSessionNotCompleted", err)
	}
}

func TestSubmitRejectsMismatchedSession(t *testing.T) {
	svc, store := setup()
	sess := sessionModel.Session{
		ID:         "sess-theo",
		ChildID:    "child-theo",
		ObserverID: "obs-other",
		Status:     sessionModel.StatusCompleted,
	}
	if err := store.CreateSession(context.Background(), sess); err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	// Completed, but for another child and another observer. A report must
	// not claim it, or that session's own report linkage is silently taken.
	input := validInput()
	input.SessionID = sess.ID
	if _, err := svc.Submit(context.Background(), observerID, input); !errors.Is(err, reportService.ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound for another child's session", err)
	}

	sess.ChildID = "child-amara"
	if err := store.UpdateSession(context.Background(), sess); err != nil {
		t.Fatalf("UpdateSession err: %v", err)
	}
	if _, err := svc.Submit(context.Background(), observerID, input); !errors.Is(err, reportService.ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound for another observer's session", err)
	}

	sess.ObserverID = observerID
	if err := store.UpdateSession(context.Background(), sess); err != nil {
		t.Fatalf("UpdateSession err: %v", err)
	}
	if _, err := svc.Submit(context.Background(), observerID, input); err != nil {
		t.Fatalf("Submit err: %v, want success once the session matches", err)
	}
}

func TestSubmitLinksCompletedSessionOnce(t *testing.T) {
	svc, store := setup()
	sessionID := storeSession(t, store, sessionModel.StatusCompleted)

	input := validInput()
	input.SessionID = sessionID
	created, err := svc.Submit(context.Background(), observerID, input)
	if err != nil {
		t.Fatalf("Submit err: %v", err)
	}
	if created.SessionID != sessionID {
		t.Fatalf("session id = %q", created.SessionID)
	}

	if _, err := svc.Submit(context.Background(), observerID, input); !errors.Is(err, reportService.ErrReportExists) {
		t.Fatalf("err = %v, want ErrReportExists", err)
	}
}

func TestSubmitUnknownSession(t *testing.T) {
	svc, _ := setup()

	input := validInput()
	input.SessionID = "sess-missing"
	if _, err := svc.Submit(context.Background(), observerID, input); !errors.Is(err, reportService.ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}
