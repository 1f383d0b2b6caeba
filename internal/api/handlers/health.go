package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/nicuwatch/nicudash/internal/pkg/logger"
	"github.com/nicuwatch/nicudash/internal/pkg/utils"
)

// Pinger is satisfied by *sql.DB
type Pinger interface {
	PingContext(ctx context.Context) error
}

// EventPinger checks the event stream backend
type EventPinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check requests
type HealthHandler struct {
	db     Pinger
	events EventPinger
	logger *logger.Logger
}

// NewHealthHandler creates a new health handler. events may be nil when the stream is disabled.
func NewHealthHandler(db Pinger, events EventPinger, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		events: events,
		logger: log,
	}
}

// Healthz handles liveness probe
// @Summary Liveness probe
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string "Application is alive"
// @Router /health [get]
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	utils.WriteSuccess(w, http.StatusOK, map[string]string{
		"status": "ok",
	}, nil)
}

// Readyz handles readiness probe. The event stream is reported but never blocks readiness.
// @Summary Readiness probe
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string "Application is ready"
// @Failure 503 {object} utils.ErrorResponse "Service unavailable"
// @Router /readyz [get]
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		h.logger.ErrorWithErr(err, "Database ping failed")
		utils.WriteErrorMessage(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Database connection failed")
		return
	}

	status := map[string]string{
		"status":   "ready",
		"database": "connected",
	}
	if h.events != nil {
		status["events"] = "connected"
		if err := h.events.Ping(ctx); err != nil {
			h.logger.WithError(err).Warn("Event stream ping failed")
			status["events"] = "degraded"
		}
	}

	utils.WriteSuccess(w, http.StatusOK, status, nil)
}
