package session

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/calebmorrow/daylight/backend/internal/middleware"
	sessionModel "github.com/calebmorrow/daylight/backend/internal/model/session"
	sessionService "github.com/calebmorrow/daylight/backend/internal/service/session"
	"github.com/calebmorrow/daylight/backend/pkg/utils"
)

// Handler exposes the session lifecycle endpoints.
type Handler struct {
	sessionSvc *sessionService.Service
}

// New creates the session handler.
func New(sessionSvc *sessionService.Service) *Handler {
	return &Handler{sessionSvc: sessionSvc}
}

// RegisterRoutes mounts the session routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/sessions/start", h.handleStart)
	r.Get("/sessions/{sessionID}", h.handleGet)
	r.Put("/sessions/{sessionID}/notes", h.handleNotes)
	r.Post("/sessions/{sessionID}/end", h.handleEnd)
}

// handleStart runs the readiness gate server-side and provisions a session.
func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	observer, ok := middleware.ObserverFromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "missing observer identity")
		return
	}

	var payload struct {
		ChildID               string `json:"childId"`
		EnvironmentReady      bool   `json:"environmentReady"`
		MaterialsReady        bool   `json:"materialsReady"`
		DistractionsMinimized bool   `json:"distractionsMinimized"`
		PersonalState         string `json:"personalState"`
		Notes                 string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	check := sessionModel.ReadinessCheck{
		EnvironmentReady:      payload.EnvironmentReady,
		MaterialsReady:        payload.MaterialsReady,
		DistractionsMinimized: payload.DistractionsMinimized,
		PersonalState:         payload.PersonalState,
		Notes:                 payload.Notes,
	}
	result, err := h.sessionSvc.Start(r.Context(), observer.ObserverID, payload.ChildID, check)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if !result.CanStart {
		// Authoritative refusal, not an error: the observer is informed and
		// returned to the schedule.
		utils.RespondJSON(w, http.StatusOK, result)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, result)
}

// handleGet returns one of the observer's sessions.
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	observer, ok := middleware.ObserverFromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "missing observer identity")
		return
	}

	sess, err := h.sessionSvc.Get(r.Context(), observer.ObserverID, chi.URLParam(r, "sessionID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, sess)
}

// handleNotes captures free-form notes during a live session.
func (h *Handler) handleNotes(w http.ResponseWriter, r *http.Request) {
	observer, ok := middleware.ObserverFromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "missing observer identity")
		return
	}

	var payload struct {
		Notes string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, err := h.sessionSvc.UpdateNotes(r.Context(), observer.ObserverID, chi.URLParam(r, "sessionID"), payload.Notes)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, sess)
}

// handleEnd closes a live session once the mandatory fields are present.
func (h *Handler) handleEnd(w http.ResponseWriter, r *http.Request) {
	observer, ok := middleware.ObserverFromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "missing observer identity")
		return
	}

	var payload struct {
		DurationMinutes int    `json:"durationMinutes"`
		MoodObserved    string `json:"moodObserved"`
		EngagementLevel string `json:"engagementLevel"`
		KeyObservations string `json:"keyObservations"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, err := h.sessionSvc.End(r.Context(), observer.ObserverID, chi.URLParam(r, "sessionID"), sessionService.EndInput{
		DurationMinutes: payload.DurationMinutes,
		MoodObserved:    payload.MoodObserved,
		EngagementLevel: payload.EngagementLevel,
		KeyObservations: payload.KeyObservations,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, sess)
}

func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sessionService.ErrChildNotFound),
		errors.Is(err, sessionService.ErrSessionNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, sessionService.ErrNotSessionOwner):
		utils.RespondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, sessionService.ErrSessionNotActive):
		utils.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, sessionService.ErrReadinessNotMet),
		errors.Is(err, sessionService.ErrMissingClosingFields):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	default:
		utils.RespondError(w, http.StatusInternalServerError, "internal error")
	}
}
