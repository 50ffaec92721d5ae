package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/calebmorrow/daylight/backend/internal/model/child"
	sessionModel "github.com/calebmorrow/daylight/backend/internal/model/session"
	sessionService "github.com/calebmorrow/daylight/backend/internal/service/session"
	"github.com/calebmorrow/daylight/backend/internal/storage/memory"
)

const (
	observerID = "obs-demo"
	childID    = "child-amara"
)

func passingCheck() sessionModel.ReadinessCheck {
	return sessionModel.ReadinessCheck{
		EnvironmentReady:      true,
		MaterialsReady:        true,
		DistractionsMinimized: true,
		PersonalState:         "calm",
	}
}

func newService() (*sessionService.Service, *memory.Store) {
	store := memory.NewStore()
	svc := sessionService.NewService(store, child.NewMemoryStore(child.Seed()))
	return svc, store
}

func TestStartCreatesInProgressSession(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	result, err := svc.Start(ctx, observerID, childID, passingCheck())
	if err != nil {
		t.Fatalf("Start err: %v", err)
	}
	if !result.CanStart {
		t.Fatalf("expected CanStart, got refusal: %s", result.Reason)
	}
	if result.Session.Status != sessionModel.StatusInProgress {
		t.Fatalf("status = %s, want in_progress", result.Session.Status)
	}
	if result.Session.StartedAt.IsZero() {
		t.Fatal("expected a start timestamp")
	}
}

func TestStartRefusesUnmetGate(t *testing.T) {
	svc, store := newService()
	ctx := context.Background()

	check := passingCheck()
	check.MaterialsReady = false

	_, err := svc.Start(ctx, observerID, childID, check)
	if !errors.Is(err, sessionService.ErrReadinessNotMet) {
		t.Fatalf("err = %v, want ErrReadinessNotMet", err)
	}

	// Gate refusal must not create a session.
	if _, ok, _ := store.ActiveSessionForChild(ctx, childID); ok {
		t.Fatal("session created despite unmet gate")
	}
}

func TestStartConflictIsRefusalNotError(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	if _, err := svc.Start(ctx, observerID, childID, passingCheck()); err != nil {
		t.Fatalf("first Start err: %v", err)
	}

	result, err := svc.Start(ctx, "obs-other", childID, passingCheck())
	if err != nil {
		t.Fatalf("second Start err: %v", err)
	}
	if result.CanStart {
		t.Fatal("expected can_start_session=false for conflicting child")
	}
	if result.Reason == "" {
		t.Fatal("refusal should carry a reason")
	}
}

func TestStartUnknownChild(t *testing.T) {
	svc, _ := newService()
	if _, err := svc.Start(context.Background(), observerID, "child-nobody", passingCheck()); !errors.Is(err, sessionService.ErrChildNotFound) {
		t.Fatalf("err = %v, want ErrChildNotFound", err)
	}
}

func TestEndRequiresClosingFields(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	result, err := svc.Start(ctx, observerID, childID, passingCheck())
	if err != nil {
		t.Fatalf("Start err: %v", err)
	}

	_, err = svc.End(ctx, observerID, result.Session.ID, sessionService.EndInput{
		EngagementLevel: "high",
	})
	if !errors.Is(err, sessionService.ErrMissingClosingFields) {
		t.Fatalf("err = %v, want ErrMissingClosingFields", err)
	}

	// Refused end leaves the session in progress.
	sess, err := svc.Get(ctx, observerID, result.Session.ID)
	if err != nil {
		t.Fatalf("Get err: %v", err)
	}
	if sess.Status != sessionModel.StatusInProgress {
		t.Fatalf("status = %s, want in_progress", sess.Status)
	}
}

func TestEndComputesDurationFromClock(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	start := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time { return start }

	result, err := svc.Start(ctx, observerID, childID, passingCheck())
	if err != nil {
		t.Fatalf("Start err: %v", err)
	}

	// 125 seconds later, without a client-side duration.
	svc.Now = func() time.Time { return start.Add(125 * time.Second) }

	sess, err := svc.End(ctx, observerID, result.Session.ID, sessionService.EndInput{
		MoodObserved:    "cheerful",
		EngagementLevel: "high",
		KeyObservations: "talked about the science fair",
	})
	if err != nil {
		t.Fatalf("End err: %v", err)
	}
	if sess.Status != sessionModel.StatusCompleted {
		t.Fatalf("status = %s, want completed", sess.Status)
	}
	if sess.DurationMinutes != 3 {
		t.Fatalf("duration = %d, want 3", sess.DurationMinutes)
	}
}

func TestEndHonorsClientDuration(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	result, err := svc.Start(ctx, observerID, childID, passingCheck())
	if err != nil {
		t.Fatalf("Start err: %v", err)
	}

	sess, err := svc.End(ctx, observerID, result.Session.ID, sessionService.EndInput{
		DurationMinutes: 7,
		MoodObserved:    "calm",
		EngagementLevel: "medium",
	})
	if err != nil {
		t.Fatalf("End err: %v", err)
	}
	if sess.DurationMinutes != 7 {
		t.Fatalf("duration = %d, want client value 7", sess.DurationMinutes)
	}
}

func TestEndTwiceConflicts(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	result, _ := svc.Start(ctx, observerID, childID, passingCheck())
	input := sessionService.EndInput{MoodObserved: "calm", EngagementLevel: "low"}
	if _, err := svc.End(ctx, observerID, result.Session.ID, input); err != nil {
		t.Fatalf("End err: %v", err)
	}
	if _, err := svc.End(ctx, observerID, result.Session.ID, input); !errors.Is(err, sessionService.ErrSessionNotActive) {
		t.Fatalf("err = %v, want ErrSessionNotActive", err)
	}
}

func TestOwnershipEnforced(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	result, _ := svc.Start(ctx, observerID, childID, passingCheck())
	if _, err := svc.Get(ctx, "obs-other", result.Session.ID); !errors.Is(err, sessionService.ErrNotSessionOwner) {
		t.Fatalf("err = %v, want ErrNotSessionOwner", err)
	}
	if _, err := svc.UpdateNotes(ctx, "obs-other", result.Session.ID, "x"); !errors.Is(err, sessionService.ErrNotSessionOwner) {
		t.Fatalf("notes err = %v, want ErrNotSessionOwner", err)
	}
}

func TestUpdateNotesNoValidation(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	result, _ := svc.Start(ctx, observerID, childID, passingCheck())
	sess, err := svc.UpdateNotes(ctx, observerID, result.Session.ID, "")
	if err != nil {
		t.Fatalf("UpdateNotes err: %v", err)
	}
	if sess.Notes != "" {
		t.Fatalf("notes = %q, want empty", sess.Notes)
	}

	sess, err = svc.UpdateNotes(ctx, observerID, result.Session.ID, "drew a picture of the dog")
	if err != nil {
		t.Fatalf("UpdateNotes err: %v", err)
	}
	if sess.Notes != "drew a picture of the dog" {
		t.Fatalf("notes = %q", sess.Notes)
	}
}
