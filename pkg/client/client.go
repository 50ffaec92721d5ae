// Package client implements the observer side of the check-in lifecycle:
// a typed API client plus the guarded session flow that drives readiness,
// the live clock, escalations and the closing report.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// ErrUnauthorized signals that the credential was rejected. The client
// clears its token first, so the caller's only option is re-authentication.
var ErrUnauthorized = errors.New("credential rejected")

// APIError carries a server-side refusal that is not an auth failure.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.Status, e.Message)
}

// Session mirrors the server's session record.
type Session struct {
	ID              string    `json:"id"`
	ChildID         string    `json:"childId"`
	ObserverID      string    `json:"observerId"`
	Status          string    `json:"status"`
	StartedAt       time.Time `json:"startedAt"`
	EndedAt         time.Time `json:"endedAt,omitempty"`
	DurationMinutes int       `json:"durationMinutes,omitempty"`
	MoodObserved    string    `json:"moodObserved,omitempty"`
	EngagementLevel string    `json:"engagementLevel,omitempty"`
	KeyObservations string    `json:"keyObservations,omitempty"`
	Notes           string    `json:"notes,omitempty"`
}

// Child mirrors the server's roster entry.
type Child struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Age    int    `json:"age"`
	Grade  string `json:"grade"`
	School string `json:"school"`
}

// ScheduleEntry is one child on the daily schedule.
type ScheduleEntry struct {
	Child         Child    `json:"child"`
	SessionStatus string   `json:"sessionStatus"`
	Session       *Session `json:"session,omitempty"`
	ReportID      string   `json:"reportId,omitempty"`
}

// Schedule is the observer's daily view.
type Schedule struct {
	TotalChildren     int             `json:"totalChildren"`
	SessionsCompleted int             `json:"sessionsCompleted"`
	SessionsPending   int             `json:"sessionsPending"`
	Entries           []ScheduleEntry `json:"schedule"`
}

// StartSessionRequest carries the full readiness checklist for audit.
type StartSessionRequest struct {
	ChildID               string `json:"childId"`
	EnvironmentReady      bool   `json:"environmentReady"`
	MaterialsReady        bool   `json:"materialsReady"`
	DistractionsMinimized bool   `json:"distractionsMinimized"`
	PersonalState         string `json:"personalState"`
	Notes                 string `json:"notes,omitempty"`
}

// StartSessionResponse is the server's authoritative verdict.
type StartSessionResponse struct {
	CanStartSession bool    `json:"canStartSession"`
	Reason          string  `json:"reason,omitempty"`
	Session         Session `json:"session,omitzero"`
}

// EndSessionRequest carries the mandatory closing fields.
type EndSessionRequest struct {
	DurationMinutes int    `json:"durationMinutes"`
	MoodObserved    string `json:"moodObserved"`
	EngagementLevel string `json:"engagementLevel"`
	KeyObservations string `json:"keyObservations,omitempty"`
}

// ReportRequest carries the structured daily report.
type ReportRequest struct {
	ChildID         string `json:"childId"`
	SessionID       string `json:"sessionId,omitempty"`
	ReportDate      string `json:"reportDate,omitempty"`
	SessionSummary  string `json:"sessionSummary"`
	ChildMood       string `json:"childMood"`
	EngagementLevel string `json:"engagementLevel"`
	KeyObservations string `json:"keyObservations"`
	Concerns        string `json:"concerns,omitempty"`
	PositiveMoments string `json:"positiveMoments,omitempty"`
	Recommendations string `json:"recommendations,omitempty"`
}

// Report mirrors the server's daily report record.
type Report struct {
	ID           string `json:"id"`
	ChildID      string `json:"childId"`
	SessionID    string `json:"sessionId,omitempty"`
	ReportDate   string `json:"reportDate"`
	ReviewStatus string `json:"reviewStatus"`
}

// EscalationRequest carries a new urgent concern.
type EscalationRequest struct {
	ChildID               string `json:"childId"`
	SessionID             string `json:"sessionId,omitempty"`
	Type                  string `json:"type"`
	Severity              string `json:"severity"`
	Description           string `json:"description"`
	ObservedBehaviors     string `json:"observedBehaviors"`
	ImmediateActionsTaken string `json:"immediateActionsTaken,omitempty"`
}

// Escalation mirrors the server's escalation record.
type Escalation struct {
	ID        string    `json:"id"`
	ChildID   string    `json:"childId"`
	SessionID string    `json:"sessionId,omitempty"`
	Type      string    `json:"type"`
	Severity  string    `json:"severity"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// Client calls the Daylight API in the identity of one observer. The
// credential travels with every request; a 401 clears it and reports
// ErrUnauthorized.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu             sync.Mutex
	token          string
	onUnauthorized func()
}

// New creates a client holding the observer's credential.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		token:      token,
	}
}

// OnUnauthorized registers a callback fired after the credential is
// cleared, typically to route the observer back to login.
func (c *Client) OnUnauthorized(fn func()) {
	c.mu.Lock()
	c.onUnauthorized = fn
	c.mu.Unlock()
}

// Token returns the current credential, empty once cleared.
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// SetToken installs a fresh credential after re-authentication.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token == "" {
		return ErrUnauthorized
	}

	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.mu.Lock()
		c.token = ""
		fn := c.onUnauthorized
		c.mu.Unlock()
		if fn != nil {
			fn()
		}
		return ErrUnauthorized
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Error == "" {
			apiErr.Error = resp.Status
		}
		return &APIError{Status: resp.StatusCode, Message: apiErr.Error}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// FetchSchedule retrieves the observer's schedule; date may be empty for
// today or YYYY-MM-DD.
func (c *Client) FetchSchedule(ctx context.Context, date string) (Schedule, error) {
	path := "/api/schedule"
	if date != "" {
		path += "?date=" + url.QueryEscape(date)
	}
	var sched Schedule
	if err := c.do(ctx, http.MethodGet, path, nil, &sched); err != nil {
		return Schedule{}, err
	}
	return sched, nil
}

// StartSession submits the readiness checklist and asks for a session.
func (c *Client) StartSession(ctx context.Context, req StartSessionRequest) (StartSessionResponse, error) {
	var resp StartSessionResponse
	if err := c.do(ctx, http.MethodPost, "/api/sessions/start", req, &resp); err != nil {
		return StartSessionResponse{}, err
	}
	return resp, nil
}

// UpdateNotes replaces the live session's free-form notes.
func (c *Client) UpdateNotes(ctx context.Context, sessionID, notes string) (Session, error) {
	var sess Session
	payload := map[string]string{"notes": notes}
	if err := c.do(ctx, http.MethodPut, "/api/sessions/"+url.PathEscape(sessionID)+"/notes", payload, &sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// EndSession closes a live session.
func (c *Client) EndSession(ctx context.Context, sessionID string, req EndSessionRequest) (Session, error) {
	var sess Session
	if err := c.do(ctx, http.MethodPost, "/api/sessions/"+url.PathEscape(sessionID)+"/end", req, &sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// SubmitReport files the daily report.
func (c *Client) SubmitReport(ctx context.Context, req ReportRequest) (Report, error) {
	var rep Report
	if err := c.do(ctx, http.MethodPost, "/api/reports", req, &rep); err != nil {
		return Report{}, err
	}
	return rep, nil
}

// SubmitEscalation files an urgent concern.
func (c *Client) SubmitEscalation(ctx context.Context, req EscalationRequest) (Escalation, error) {
	var esc Escalation
	if err := c.do(ctx, http.MethodPost, "/api/escalations", req, &esc); err != nil {
		return Escalation{}, err
	}
	return esc, nil
}

// FetchEscalations lists the observer's escalations with current status.
func (c *Client) FetchEscalations(ctx context.Context) ([]Escalation, error) {
	var resp struct {
		Escalations []Escalation `json:"escalations"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/escalations", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Escalations, nil
}
