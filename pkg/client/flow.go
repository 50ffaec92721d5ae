package client

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Phase is the explicit per-session state. Exactly one phase holds at a
// time; every transition below is guarded.
type Phase string

const (
	PhasePending    Phase = "pending"
	PhaseReadyCheck Phase = "ready_check"
	PhaseInProgress Phase = "in_progress"
	PhaseCompleted  Phase = "completed"
	PhaseReported   Phase = "reported"
)

// API is the server surface the flow drives. *Client implements it.
type API interface {
	StartSession(ctx context.Context, req StartSessionRequest) (StartSessionResponse, error)
	UpdateNotes(ctx context.Context, sessionID, notes string) (Session, error)
	EndSession(ctx context.Context, sessionID string, req EndSessionRequest) (Session, error)
	SubmitReport(ctx context.Context, req ReportRequest) (Report, error)
	SubmitEscalation(ctx context.Context, req EscalationRequest) (Escalation, error)
}

// ReadinessCheck is the pre-session checklist evaluated locally before any
// request is made.
type ReadinessCheck struct {
	EnvironmentReady      bool
	MaterialsReady        bool
	DistractionsMinimized bool
	PersonalState         string
	Notes                 string
}

// Unmet lists the failed checklist items.
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

// GateError reports a readiness gate refused locally; no request was sent.
type GateError struct {
	Unmet []string
}

func (e *GateError) Error() string {
	return "readiness gate not met: " + strings.Join(e.Unmet, ", ")
}

// ValidationError reports missing required fields; no request was sent.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Missing, ", ")
}

// RefusedError reports an authoritative server-side refusal
// (can_start_session false) despite the local gate passing.
type RefusedError struct {
	Reason string
}

func (e *RefusedError) Error() string {
	return "server refused to start session: " + e.Reason
}

// ErrRequestInFlight guards against duplicate submission of the same
// transition while a response is outstanding.
var ErrRequestInFlight = fmt.Errorf("a request is already in flight")

// WrongPhaseError reports a transition attempted out of order.
type WrongPhaseError struct {
	Have Phase
	Want Phase
}

func (e *WrongPhaseError) Error() string {
	return fmt.Sprintf("operation requires phase %s, current phase is %s", e.Want, e.Have)
}

var validSeverities = map[string]struct{}{
	"low":      {},
	"medium":   {},
	"high":     {},
	"critical": {},
}

// Flow owns one child's session lifecycle on the observer's device. All
// mutating calls are awaited one at a time; a failed request leaves the
// phase untouched so the observer can retry explicitly.
type Flow struct {
	api     API
	childID string

	// mu guards phase, session and report: the clock tick reads them from
	// its own goroutine.
	mu        sync.Mutex
	phase     Phase
	session   Session
	report    Report
	inFlight  bool
	escActive bool

	// now is swappable for tests; the live clock is always recomputed from
	// the session's start timestamp, never accumulated.
	now func() time.Time
}

// NewFlow creates a flow for one scheduled child, starting at pending.
func NewFlow(api API, childID string) *Flow {
	return &Flow{api: api, childID: childID, phase: PhasePending, now: time.Now}
}

// Phase returns the current lifecycle phase.
func (f *Flow) Phase() Phase {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.phase
}

// Session returns the provisioned session; its zero value before start.
func (f *Flow) Session() Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session
}

// Report returns the filed report; its zero value before finalization.
func (f *Flow) Report() Report {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.report
}

func (f *Flow) setPhase(p Phase) {
	f.mu.Lock()
	f.phase = p
	f.mu.Unlock()
}

func (f *Flow) requirePhase(want Phase) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.phase != want {
		return &WrongPhaseError{Have: f.phase, Want: want}
	}
	return nil
}

// BeginReadiness opens the pre-session checklist view.
func (f *Flow) BeginReadiness() error {
	if err := f.requirePhase(PhasePending); err != nil {
		return err
	}
	f.setPhase(PhaseReadyCheck)
	return nil
}

// CancelReadiness returns to the schedule without starting.
func (f *Flow) CancelReadiness() error {
	if err := f.requirePhase(PhaseReadyCheck); err != nil {
		return err
	}
	f.setPhase(PhasePending)
	return nil
}

// SubmitReadiness evaluates the gate and, only when every check passes,
// asks the server for a session. On a server refusal the observer is
// returned to the schedule; the refusal is final here, never retried.
func (f *Flow) SubmitReadiness(ctx context.Context, check ReadinessCheck) error {
	if err := f.requirePhase(PhaseReadyCheck); err != nil {
		return err
	}
	if unmet := check.Unmet(); len(unmet) > 0 {
		return &GateError{Unmet: unmet}
	}
	if err := f.begin(); err != nil {
		return err
	}
	defer f.finish()

	resp, err := f.api.StartSession(ctx, StartSessionRequest{
		ChildID:               f.childID,
		EnvironmentReady:      check.EnvironmentReady,
		MaterialsReady:        check.MaterialsReady,
		DistractionsMinimized: check.DistractionsMinimized,
		PersonalState:         check.PersonalState,
		Notes:                 check.Notes,
	})
	if err != nil {
		return err
	}
	if !resp.CanStartSession {
		f.setPhase(PhasePending)
		return &RefusedError{Reason: resp.Reason}
	}
	f.mu.Lock()
	f.session = resp.Session
	f.phase = PhaseInProgress
	f.mu.Unlock()
	return nil
}

// Elapsed recomputes the live clock from the start timestamp, so reloads
// and device sleeps cannot corrupt it.
func (f *Flow) Elapsed() time.Duration {
	f.mu.Lock()
	phase, startedAt := f.phase, f.session.StartedAt
	f.mu.Unlock()

	if phase != PhaseInProgress || startedAt.IsZero() {
		return 0
	}
	now := f.now()
	if now.Before(startedAt) {
		return 0
	}
	return now.Sub(startedAt)
}

// StartClock runs a 1 Hz elapsed-time callback. The returned stop function
// must be called when the session view is torn down, or the tick leaks.
func (f *Flow) StartClock(onTick func(elapsed time.Duration)) (stop func()) {
	done := make(chan struct{})
	ticker := time.NewTicker(time.Second)

	// Fire once immediately so the display is right on mount.
	onTick(f.Elapsed())

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				onTick(f.Elapsed())
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
	}
}

// SetNotes pushes free-form notes to the live session. Notes carry no
// validation; a failed push keeps the previous notes.
func (f *Flow) SetNotes(ctx context.Context, notes string) error {
	if err := f.requirePhase(PhaseInProgress); err != nil {
		return err
	}
	if err := f.begin(); err != nil {
		return err
	}
	defer f.finish()

	sess, err := f.api.UpdateNotes(ctx, f.Session().ID, notes)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.session = sess
	f.mu.Unlock()
	return nil
}

// RaiseEscalation files an urgent concern without touching the session
// phase: the session stays in progress no matter how many concerns are
// raised from it, and the channel works standalone from any phase.
func (f *Flow) RaiseEscalation(ctx context.Context, req EscalationRequest) (Escalation, error) {
	if req.ChildID == "" {
		req.ChildID = f.childID
	}
	if req.SessionID == "" && f.Phase() == PhaseInProgress {
		req.SessionID = f.Session().ID
	}

	var missing []string
	if strings.TrimSpace(req.Type) == "" {
		missing = append(missing, "escalation_type")
	}
	if strings.TrimSpace(req.Description) == "" {
		missing = append(missing, "description")
	}
	if strings.TrimSpace(req.ObservedBehaviors) == "" {
		missing = append(missing, "observed_behaviors")
	}
	if _, ok := validSeverities[strings.ToLower(strings.TrimSpace(req.Severity))]; !ok {
		missing = append(missing, "severity")
	}
	if len(missing) > 0 {
		return Escalation{}, &ValidationError{Missing: missing}
	}

	f.mu.Lock()
	if f.escActive {
		f.mu.Unlock()
		return Escalation{}, ErrRequestInFlight
	}
	f.escActive = true
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.escActive = false
		f.mu.Unlock()
	}()

	return f.api.SubmitEscalation(ctx, req)
}

// End closes the session. Both mandatory fields must be set or the request
// is never issued; duration is the elapsed wall-clock time rounded up to
// whole minutes.
func (f *Flow) End(ctx context.Context, moodObserved, engagementLevel, keyObservations string) error {
	if err := f.requirePhase(PhaseInProgress); err != nil {
		return err
	}

	var missing []string
	if strings.TrimSpace(moodObserved) == "" {
		missing = append(missing, "mood_observed")
	}
	if strings.TrimSpace(engagementLevel) == "" {
		missing = append(missing, "engagement_level")
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}

	if err := f.begin(); err != nil {
		return err
	}
	defer f.finish()

	elapsed := f.Elapsed()
	sess, err := f.api.EndSession(ctx, f.Session().ID, EndSessionRequest{
		DurationMinutes: durationMinutes(elapsed),
		MoodObserved:    moodObserved,
		EngagementLevel: engagementLevel,
		KeyObservations: keyObservations,
	})
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.session = sess
	f.phase = PhaseCompleted
	f.mu.Unlock()
	return nil
}

// FinalizeReport files the mandatory report for the completed session and
// closes out the lifecycle.
func (f *Flow) FinalizeReport(ctx context.Context, req ReportRequest) error {
	if err := f.requirePhase(PhaseCompleted); err != nil {
		return err
	}

	var missing []string
	if strings.TrimSpace(req.SessionSummary) == "" {
		missing = append(missing, "session_summary")
	}
	if strings.TrimSpace(req.ChildMood) == "" {
		missing = append(missing, "child_mood")
	}
	if strings.TrimSpace(req.EngagementLevel) == "" {
		missing = append(missing, "engagement_level")
	}
	if strings.TrimSpace(req.KeyObservations) == "" {
		missing = append(missing, "key_observations")
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}

	if req.ChildID == "" {
		req.ChildID = f.childID
	}
	if req.SessionID == "" {
		req.SessionID = f.Session().ID
	}
	if req.ReportDate == "" {
		req.ReportDate = f.now().UTC().Format("2006-01-02")
	}

	if err := f.begin(); err != nil {
		return err
	}
	defer f.finish()

	rep, err := f.api.SubmitReport(ctx, req)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.report = rep
	f.phase = PhaseReported
	f.mu.Unlock()
	return nil
}

// begin marks a gated transition as outstanding; a second submission of
// the same transition is refused until the response lands.
func (f *Flow) begin() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inFlight {
		return ErrRequestInFlight
	}
	f.inFlight = true
	return nil
}

func (f *Flow) finish() {
	f.mu.Lock()
	f.inFlight = false
	f.mu.Unlock()
}

// durationMinutes rounds elapsed time up to whole minutes; 125 seconds
// bills as 3 minutes.
func durationMinutes(elapsed time.Duration) int {
	if elapsed <= 0 {
		return 0
	}
	seconds := int(elapsed / time.Second)
	if elapsed%time.Second > 0 {
		seconds++
	}
	return (seconds + 59) / 60
}
