package escalation_test

import (
	"context"
	"errors"
	"testing"

	"github.com/calebmorrow/daylight/backend/internal/model/child"
	escalationModel "github.com/calebmorrow/daylight/backend/internal/model/escalation"
	sessionModel "github.com/calebmorrow/daylight/backend/internal/model/session"
	escalationService "github.com/calebmorrow/daylight/backend/internal/service/escalation"
	"github.com/calebmorrow/daylight/backend/internal/storage/memory"
)

const observerID = "obs-demo"

type captureNotifier struct {
	created []escalationModel.Escalation
}

func (n *captureNotifier) EscalationCreated(e escalationModel.Escalation) {
	n.created = append(n.created, e)
}

func setup() (*escalationService.Service, *memory.Store, *captureNotifier) {
	store := memory.NewStore()
	notifier := &captureNotifier{}
	svc := escalationService.NewService(store, store, child.NewMemoryStore(child.Seed()), notifier)
	return svc, store, notifier
}

func validInput() escalationService.CreateInput {
	return escalationService.CreateInput{
		ChildID:           "child-amara",
		Type:              "behavioral_change",
		Severity:          "critical",
		Description:       "sudden withdrawal during check-in",
		ObservedBehaviors: "refused eye contact, flinched at loud noise",
	}
}

func TestCreateOpensEscalation(t *testing.T) {
	svc, _, notifier := setup()
	ctx := context.Background()

	created, err := svc.Create(ctx, observerID, validInput())
	if err != nil {
		t.Fatalf("Create err: %v", err)
	}
	if created.Status != escalationModel.StatusOpen {
		t.Fatalf("status = %s, want open", created.Status)
	}
	if created.Severity != escalationModel.SeverityCritical {
		t.Fatalf("severity = %s, want critical", created.Severity)
	}

	// Scenario: a critical escalation shows up in the list as open.
	listed, err := svc.List(ctx, observerID)
	if err != nil {
		t.Fatalf("List err: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != created.ID || listed[0].Status != escalationModel.StatusOpen {
		t.Fatalf("unexpected list: %+v", listed)
	}

	if len(notifier.created) != 1 || notifier.created[0].ID != created.ID {
		t.Fatalf("notifier not invoked: %+v", notifier.created)
	}
}

func TestCreateRejectsMissingFields(t *testing.T) {
	svc, _, _ := setup()
	ctx := context.Background()

	input := validInput()
	input.Description = ""
	input.ObservedBehaviors = " "
	if _, err := svc.Create(ctx, observerID, input); !errors.Is(err, escalationService.ErrMissingFields) {
		t.Fatalf("err = %v, want ErrMissingFields", err)
	}
}

func TestCreateRejectsUnknownSeverity(t *testing.T) {
	svc, _, _ := setup()
	ctx := context.Background()

	input := validInput()
	input.Severity = "catastrophic"
	if _, err := svc.Create(ctx, observerID, input); !errors.Is(err, escalationService.ErrInvalidSeverity) {
		t.Fatalf("err = %v, want ErrInvalidSeverity", err)
	}
}

func TestCreateWithSessionReference(t *testing.T) {
	svc, store, _ := setup()
	ctx := context.Background()

	sess := sessionModel.Session{
		ID:         "sess-1",
		ChildID:    "child-amara",
		ObserverID: observerID,
		Status:     sessionModel.StatusInProgress,
	}
	if err := store.CreateSession(ctx, sess); err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	input := validInput()
	input.SessionID = "sess-1"
	created, err := svc.Create(ctx, observerID, input)
	if err != nil {
		t.Fatalf("Create err: %v", err)
	}
	if created.SessionID != "sess-1" {
		t.Fatalf("session id = %q", created.SessionID)
	}

	// Raising a concern never disturbs the session.
	got, err := store.GetSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("GetSession err: %v", err)
	}
	if got.Status != sessionModel.StatusInProgress {
		t.Fatalf("session status = %s, want in_progress", got.Status)
	}

	input.SessionID = "sess-missing"
	if _, err := svc.Create(ctx, observerID, input); !errors.Is(err, escalationService.ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestUpdateStatusFollowsOrder(t *testing.T) {
	svc, _, _ := setup()
	ctx := context.Background()

	created, err := svc.Create(ctx, observerID, validInput())
	if err != nil {
		t.Fatalf("Create err: %v", err)
	}

	updated, err := svc.UpdateStatus(ctx, created.ID, escalationModel.StatusInvestigating, "")
	if err != nil {
		t.Fatalf("UpdateStatus err: %v", err)
	}
	if updated.Status != escalationModel.StatusInvestigating {
		t.Fatalf("status = %s", updated.Status)
	}

	updated, err = svc.UpdateStatus(ctx, created.ID, escalationModel.StatusResolved, "guardian contacted, counselor scheduled")
	if err != nil {
		t.Fatalf("UpdateStatus err: %v", err)
	}
	if updated.Resolution == "" {
		t.Fatal("resolution text lost")
	}

	if _, err := svc.UpdateStatus(ctx, created.ID, escalationModel.StatusInvestigating, ""); !errors.Is(err, escalationService.ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
}
