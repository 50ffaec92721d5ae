package report

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/calebmorrow/daylight/backend/internal/middleware"
	reportModel "github.com/calebmorrow/daylight/backend/internal/model/report"
	reportService "github.com/calebmorrow/daylight/backend/internal/service/report"
	"github.com/calebmorrow/daylight/backend/pkg/utils"
)

// Handler exposes the daily report endpoints.
type Handler struct {
	reportSvc *reportService.Service
}

// New creates the report handler.
func New(reportSvc *reportService.Service) *Handler {
	return &Handler{reportSvc: reportSvc}
}

// RegisterRoutes mounts the report routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/reports", h.handleSubmit)
	r.Get("/reports", h.handleList)
}

// handleSubmit files the structured report that follows a completed session.
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	observer, ok := middleware.ObserverFromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "missing observer identity")
		return
	}

	var payload struct {
		ChildID         string `json:"childId"`
		SessionID       string `json:"sessionId"`
		ReportDate      string `json:"reportDate"`
		SessionSummary  string `json:"sessionSummary"`
		ChildMood       string `json:"childMood"`
		EngagementLevel string `json:"engagementLevel"`
		KeyObservations string `json:"keyObservations"`
		Concerns        string `json:"concerns"`
		PositiveMoments string `json:"positiveMoments"`
		Recommendations string `json:"recommendations"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.reportSvc.Submit(r.Context(), observer.ObserverID, reportService.SubmitInput{
		ChildID:         payload.ChildID,
		SessionID:       payload.SessionID,
		ReportDate:      payload.ReportDate,
		SessionSummary:  payload.SessionSummary,
		ChildMood:       payload.ChildMood,
		EngagementLevel: payload.EngagementLevel,
		KeyObservations: payload.KeyObservations,
		Concerns:        payload.Concerns,
		PositiveMoments: payload.PositiveMoments,
		Recommendations: payload.Recommendations,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, created)
}

// handleList returns the observer's reports.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	observer, ok := middleware.ObserverFromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "missing observer identity")
		return
	}

	reports, err := h.reportSvc.List(r.Context(), observer.ObserverID)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to list reports")
		return
	}
	if reports == nil {
		reports = []reportModel.DailyReport{}
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"reports": reports})
}

func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, reportService.ErrChildNotFound),
		errors.Is(err, reportService.ErrSessionNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, reportService.ErrMissingFields),
		errors.Is(err, reportService.ErrInvalidReportDate):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, reportService.ErrSessionNotCompleted),
		errors.Is(err, reportService.ErrReportExists):
		utils.RespondError(w, http.StatusConflict, err.Error())
	default:
		utils.RespondError(w, http.StatusInternalServerError, "internal error")
	}
}
