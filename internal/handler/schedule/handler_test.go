package schedule

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/calebmorrow/daylight/backend/internal/auth"
	"github.com/calebmorrow/daylight/backend/internal/middleware"
	"github.com/calebmorrow/daylight/backend/internal/model/child"
	scheduleService "github.com/calebmorrow/daylight/backend/internal/service/schedule"
	"github.com/calebmorrow/daylight/backend/internal/storage/memory"
)

func setupRouter() *chi.Mux {
	store := memory.NewStore()
	svc := scheduleService.NewService(child.NewMemoryStore(child.Seed()), store, store)
	handler := New(svc)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := middleware.WithObserver(req.Context(), auth.Claims{ObserverID: "obs-demo"})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	handler.RegisterRoutes(r)
	return r
}

func TestFetchSchedule(t *testing.T) {
	r := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/schedule", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var sched struct {
		TotalChildren   int `json:"totalChildren"`
		SessionsPending int `json:"sessionsPending"`
		Schedule        []struct {
			SessionStatus string `json:"sessionStatus"`
		} `json:"schedule"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &sched); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if sched.TotalChildren != 3 || sched.SessionsPending != 3 {
		t.Fatalf("unexpected counts: %+v", sched)
	}
	for _, entry := range sched.Schedule {
		if entry.SessionStatus != "pending" {
			t.Fatalf("status = %s, want pending", entry.SessionStatus)
		}
	}
}

func TestFetchScheduleBadDate(t *testing.T) {
	r := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/schedule?date=03-04-2026", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}
