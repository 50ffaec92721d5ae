package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/calebmorrow/daylight/backend/internal/auth"
	"github.com/calebmorrow/daylight/backend/internal/middleware"
)

func testConfig() auth.Config {
	return auth.Config{
		Issuer: "daylight",
		Secret: []byte("test-secret"),
		TTL:    time.Hour,
		Now:    time.Now,
	}
}

func protected(t *testing.T, cfg auth.Config) (http.Handler, *auth.Claims) {
	t.Helper()
	var seen auth.Claims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.ObserverFromContext(r.Context())
		if !ok {
			t.Error("claims missing from context")
		}
		seen = claims
		w.WriteHeader(http.StatusNoContent)
	})
	return middleware.RequireObserver(cfg)(next), &seen
}

func TestRequireObserverPassesValidToken(t *testing.T) {
	cfg := testConfig()
	token, err := auth.Issue(cfg, "obs-demo", "Demo Observer")
	if err != nil {
		t.Fatalf("Issue err: %v", err)
	}
	handler, seen := protected(t, cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/schedule", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if seen.ObserverID != "obs-demo" || seen.Name != "Demo Observer" {
		t.Fatalf("claims = %+v", *seen)
	}
}

func TestRequireObserverAcceptsQueryToken(t *testing.T) {
	cfg := testConfig()
	token, err := auth.Issue(cfg, "obs-demo", "")
	if err != nil {
		t.Fatalf("Issue err: %v", err)
	}
	handler, seen := protected(t, cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/events/escalations?token="+token, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if seen.ObserverID != "obs-demo" {
		t.Fatalf("claims = %+v", *seen)
	}
}

func TestRequireObserverRejects(t *testing.T) {
	cfg := testConfig()
	otherSecret := cfg
	otherSecret.Secret = []byte("other-secret")
	forged, err := auth.Issue(otherSecret, "obs-demo", "")
	if err != nil {
		t.Fatalf("Issue err: %v", err)
	}

	cases := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"malformed", "Bearer not.a.jwt"},
		{"wrong secret", "Bearer " + forged},
	}
	handler, _ := protected(t, cfg)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/schedule", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
		})
	}
}
