package session

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/calebmorrow/daylight/backend/internal/auth"
	"github.com/calebmorrow/daylight/backend/internal/middleware"
	"github.com/calebmorrow/daylight/backend/internal/model/child"
	sessionService "github.com/calebmorrow/daylight/backend/internal/service/session"
	"github.com/calebmorrow/daylight/backend/internal/storage/memory"
)

func setupRouter() (*chi.Mux, *sessionService.Service) {
	svc := sessionService.NewService(memory.NewStore(), child.NewMemoryStore(child.Seed()))
	handler := New(svc)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := middleware.WithObserver(req.Context(), auth.Claims{ObserverID: "obs-demo"})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	handler.RegisterRoutes(r)
	return r, svc
}

func postJSON(t *testing.T, r http.Handler, path string, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func startBody(childID string) map[string]any {
	return map[string]any{
		"childId":               childID,
		"environmentReady":      true,
		"materialsReady":        true,
		"distractionsMinimized": true,
		"personalState":         "calm",
	}
}

func TestStartSession(t *testing.T) {
	r, _ := setupRouter()

	resp := postJSON(t, r, "/sessions/start", startBody("child-amara"))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var result struct {
		CanStartSession bool `json:"canStartSession"`
		Session         struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"session"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &result); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !result.CanStartSession || result.Session.ID == "" || result.Session.Status != "in_progress" {
		t.Fatalf("unexpected response: %+v", result)
	}
}

func TestStartSessionGateUnmet(t *testing.T) {
	r, _ := setupRouter()

	body := startBody("child-amara")
	body["materialsReady"] = false
	resp := postJSON(t, r, "/sessions/start", body)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestStartSessionConflictRefusal(t *testing.T) {
	r, _ := setupRouter()

	if resp := postJSON(t, r, "/sessions/start", startBody("child-amara")); resp.Code != http.StatusCreated {
		t.Fatalf("first start: %d", resp.Code)
	}

	resp := postJSON(t, r, "/sessions/start", startBody("child-amara"))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 refusal, got %d", resp.Code)
	}
	var result struct {
		CanStartSession bool   `json:"canStartSession"`
		Reason          string `json:"reason"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &result); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if result.CanStartSession || result.Reason == "" {
		t.Fatalf("unexpected refusal payload: %+v", result)
	}
}

func TestStartSessionUnknownChild(t *testing.T) {
	r, _ := setupRouter()

	resp := postJSON(t, r, "/sessions/start", startBody("child-nobody"))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestEndSessionMissingFields(t *testing.T) {
	r, _ := setupRouter()

	resp := postJSON(t, r, "/sessions/start", startBody("child-amara"))
	var result struct {
		Session struct {
			ID string `json:"id"`
		} `json:"session"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &result); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	end := postJSON(t, r, "/sessions/"+result.Session.ID+"/end", map[string]any{
		"engagementLevel": "high",
	})
	if end.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", end.Code)
	}

	// Refused end leaves the session in progress.
	get := httptest.NewRequest(http.MethodGet, "/sessions/"+result.Session.ID, nil)
	got := httptest.NewRecorder()
	r.ServeHTTP(got, get)
	var sess struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(got.Body.Bytes(), &sess); err != nil {
		t.Fatalf("unmarshal session: %v", err)
	}
	if sess.Status != "in_progress" {
		t.Fatalf("status = %s, want in_progress", sess.Status)
	}
}

func TestEndSessionCompletes(t *testing.T) {
	r, _ := setupRouter()

	resp := postJSON(t, r, "/sessions/start", startBody("child-amara"))
	var result struct {
		Session struct {
			ID string `json:"id"`
		} `json:"session"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &result); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	end := postJSON(t, r, "/sessions/"+result.Session.ID+"/end", map[string]any{
		"durationMinutes": 3,
		"moodObserved":    "cheerful",
		"engagementLevel": "high",
		"keyObservations": "talked about soccer practice",
	})
	if end.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", end.Code, end.Body.String())
	}
	var sess struct {
		Status          string `json:"status"`
		DurationMinutes int    `json:"durationMinutes"`
	}
	if err := json.Unmarshal(end.Body.Bytes(), &sess); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if sess.Status != "completed" || sess.DurationMinutes != 3 {
		t.Fatalf("unexpected session: %+v", sess)
	}
}
