package escalation

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/calebmorrow/daylight/backend/internal/middleware"
	escalationModel "github.com/calebmorrow/daylight/backend/internal/model/escalation"
	escalationService "github.com/calebmorrow/daylight/backend/internal/service/escalation"
	"github.com/calebmorrow/daylight/backend/pkg/utils"
)

// Handler exposes the escalation side-channel.
type Handler struct {
	escalationSvc *escalationService.Service
}

// New creates the escalation handler.
func New(escalationSvc *escalationService.Service) *Handler {
	return &Handler{escalationSvc: escalationSvc}
}

// RegisterRoutes mounts the escalation routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/escalations", h.handleCreate)
	r.Get("/escalations", h.handleList)
	r.Patch("/escalations/{escalationID}/status", h.handleUpdateStatus)
}

// handleCreate files a new concern with status open.
func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	observer, ok := middleware.ObserverFromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "missing observer identity")
		return
	}

	var payload struct {
		ChildID               string `json:"childId"`
		SessionID             string `json:"sessionId"`
		Type                  string `json:"type"`
		Severity              string `json:"severity"`
		Description           string `json:"description"`
		ObservedBehaviors     string `json:"observedBehaviors"`
		ImmediateActionsTaken string `json:"immediateActionsTaken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.escalationSvc.Create(r.Context(), observer.ObserverID, escalationService.CreateInput{
		ChildID:               payload.ChildID,
		SessionID:             payload.SessionID,
		Type:                  payload.Type,
		Severity:              payload.Severity,
		Description:           payload.Description,
		ObservedBehaviors:     payload.ObservedBehaviors,
		ImmediateActionsTaken: payload.ImmediateActionsTaken,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, created)
}

// handleList returns the observer's escalations with their current status.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	observer, ok := middleware.ObserverFromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "missing observer identity")
		return
	}

	escalations, err := h.escalationSvc.List(r.Context(), observer.ObserverID)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to list escalations")
		return
	}
	if escalations == nil {
		escalations = []escalationModel.Escalation{}
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"escalations": escalations})
}

// handleUpdateStatus advances an escalation on behalf of the supervising
// party. There is no supervisor role yet, so any authenticated observer
// can call this; a role check belongs here once supervisor accounts exist.
func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.ObserverFromContext(r.Context()); !ok {
		utils.RespondError(w, http.StatusUnauthorized, "missing observer identity")
		return
	}

	var payload struct {
		Status     string `json:"status"`
		Resolution string `json:"resolution"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	next := escalationModel.Status(payload.Status)
	switch next {
	case escalationModel.StatusInvestigating, escalationModel.StatusResolved:
	default:
		utils.RespondError(w, http.StatusBadRequest, "status must be investigating or resolved")
		return
	}

	updated, err := h.escalationSvc.UpdateStatus(r.Context(), chi.URLParam(r, "escalationID"), next, payload.Resolution)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, updated)
}

func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, escalationService.ErrChildNotFound),
		errors.Is(err, escalationService.ErrEscalationNotFound),
		errors.Is(err, escalationService.ErrSessionNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, escalationService.ErrMissingFields),
		errors.Is(err, escalationService.ErrInvalidSeverity):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, escalationService.ErrInvalidTransition):
		utils.RespondError(w, http.StatusConflict, err.Error())
	default:
		utils.RespondError(w, http.StatusInternalServerError, "internal error")
	}
}
