package handlers

import (
	"net/http"
	"time"

	"git.home.luguber.info/inful/accctl/internal/foundation/errors"
	"git.home.luguber.info/inful/accctl/internal/server/responses"
	"git.home.luguber.info/inful/accctl/internal/version"
)

// MonitoringHandlers serves liveness information.
type MonitoringHandlers struct {
	startTime    time.Time
	errorAdapter *errors.HTTPErrorAdapter
}

// NewMonitoringHandlers creates monitoring handlers.
func NewMonitoringHandlers(startTime time.Time, adapter *errors.HTTPErrorAdapter) *MonitoringHandlers {
	return &MonitoringHandlers{startTime: startTime, errorAdapter: adapter}
}

// HandleHealthCheck handles GET /healthz.
func (h *MonitoringHandlers) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	respond(h.errorAdapter, w, r, http.StatusOK, responses.HealthResponse{
		Status:    "ok",
		Version:   version.Version,
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.startTime).Seconds(),
	})
}
