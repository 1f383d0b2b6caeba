package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/nicuwatch/nicudash/internal/api/handlers"
	"github.com/nicuwatch/nicudash/internal/api/middleware"
	"github.com/nicuwatch/nicudash/internal/auth"
	"github.com/nicuwatch/nicudash/internal/config"
	"github.com/nicuwatch/nicudash/internal/pkg/logger"
	"github.com/nicuwatch/nicudash/internal/pkg/metrics"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Handlers struct {
	Health  *handlers.HealthHandler
	Alarm   *handlers.AlarmHandler
	Patient *handlers.PatientHandler
}

func New(cfg *config.Config, log *logger.Logger, gate auth.Gate, h *Handlers) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	r.Use(middleware.DashboardCORS(cfg.Server.FrontendURL))
	r.Use(middleware.SecurityHeaders)
	r.Use(metrics.Middleware)
	if cfg.Alarm.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(cfg.Alarm.RequestTimeout))
	}

	// Public routes
	r.Group(func(r chi.Router) {
		r.Get("/swagger/*", httpSwagger.WrapHandler)
		r.Handle("/metrics", metrics.Handler())

		r.Get("/health", h.Health.Healthz)
		r.Get("/healthz", h.Health.Healthz)
		r.Get("/readyz", h.Health.Readyz)
	})

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(gate))

		alarms := func(r chi.Router) {
			r.Get("/", h.Alarm.List)
			r.With(middleware.RequireActingRole()).Post("/", h.Alarm.Apply)
		}
		r.Route("/api/v1/alarms", alarms)
		// Alias for dashboard compatibility
		r.Route("/api/alarms", alarms)

		r.Route("/api/v1/patients/{id}", func(r chi.Router) {
			r.Get("/alarm-limits", h.Patient.GetAlarmLimits)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireActingRole())
				r.Put("/alarm-limits", h.Patient.UpdateAlarmLimits)
				r.Post("/alarms/resolve", h.Alarm.ResolvePatient)
			})
		})
	})

	return r
}
