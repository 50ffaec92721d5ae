package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/calebmorrow/daylight/backend/internal/auth"
	escalationHandler "github.com/calebmorrow/daylight/backend/internal/handler/escalation"
	eventsHandler "github.com/calebmorrow/daylight/backend/internal/handler/events"
	reportHandler "github.com/calebmorrow/daylight/backend/internal/handler/report"
	scheduleHandler "github.com/calebmorrow/daylight/backend/internal/handler/schedule"
	sessionHandler "github.com/calebmorrow/daylight/backend/internal/handler/session"
	middlewarePkg "github.com/calebmorrow/daylight/backend/internal/middleware"
	escalationService "github.com/calebmorrow/daylight/backend/internal/service/escalation"
	reportService "github.com/calebmorrow/daylight/backend/internal/service/report"
	scheduleService "github.com/calebmorrow/daylight/backend/internal/service/schedule"
	sessionService "github.com/calebmorrow/daylight/backend/internal/service/session"
)

// NewRouter wires HTTP routes to core services. Every /api route requires a
// valid observer credential.
func NewRouter(
	authCfg auth.Config,
	scheduleSvc *scheduleService.Service,
	sessionSvc *sessionService.Service,
	reportSvc *reportService.Service,
	escalationSvc *escalationService.Service,
	hub *eventsHandler.Hub,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Route("/api", func(api chi.Router) {
		api.Use(middlewarePkg.RequireObserver(authCfg))

		scheduleHandler.New(scheduleSvc).RegisterRoutes(api)
		sessionHandler.New(sessionSvc).RegisterRoutes(api)
		reportHandler.New(reportSvc).RegisterRoutes(api)
		escalationHandler.New(escalationSvc).RegisterRoutes(api)
		eventsHandler.New(hub).RegisterRoutes(api)
	})

	return r
}
