package schedule

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/calebmorrow/daylight/backend/internal/middleware"
	scheduleService "github.com/calebmorrow/daylight/backend/internal/service/schedule"
	"github.com/calebmorrow/daylight/backend/pkg/utils"
)

// Handler exposes the observer's daily schedule.
type Handler struct {
	scheduleSvc *scheduleService.Service
}

// New creates the schedule handler.
func New(scheduleSvc *scheduleService.Service) *Handler {
	return &Handler{scheduleSvc: scheduleSvc}
}

// RegisterRoutes mounts the schedule routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/schedule", h.handleFetch)
}

// handleFetch returns today's roster, or another day when ?date=YYYY-MM-DD
// is supplied.
func (h *Handler) handleFetch(w http.ResponseWriter, r *http.Request) {
	observer, ok := middleware.ObserverFromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "missing observer identity")
		return
	}

	var day time.Time
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
			return
		}
		day = parsed
	}

	sched, err := h.scheduleSvc.ForObserver(r.Context(), observer.ObserverID, day)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to load schedule")
		return
	}
	utils.RespondJSON(w, http.StatusOK, sched)
}
