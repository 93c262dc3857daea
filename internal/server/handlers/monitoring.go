package handlers

import (
	"log/slog"
	"net/http"
	"time"

	ferrors "git.home.luguber.info/inful/mdpage/internal/foundation/errors"
	"git.home.luguber.info/inful/mdpage/internal/server/responses"
	"git.home.luguber.info/inful/mdpage/internal/version"
)

// MonitoringHandlers contains monitoring-related HTTP handlers.
type MonitoringHandlers struct {
	runtime      HealthRuntime
	errorAdapter *ferrors.HTTPErrorAdapter
}

// HealthRuntime defines the daemon surface needed by health checks.
type HealthRuntime interface {
	Status() string
	StartTime() time.Time
	Building() bool
}

// NewMonitoringHandlers creates a new monitoring handlers instance.
func NewMonitoringHandlers(runtime HealthRuntime) *MonitoringHandlers {
	return &MonitoringHandlers{
		runtime:      runtime,
		errorAdapter: ferrors.NewHTTPErrorAdapter(slog.Default()),
	}
}

// HandleHealth handles the health check endpoint.
func (h *MonitoringHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		err := ferrors.ValidationError("invalid HTTP method").
			WithContext("method", r.Method).
			WithContext("allowed_method", "GET").
			Build()
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	health := &responses.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   version.Version,
	}
	if h.runtime != nil {
		health.Uptime = time.Since(h.runtime.StartTime()).Seconds()
		health.DaemonStatus = h.runtime.Status()
		health.Building = h.runtime.Building()
	}

	if err := writeJSON(w, r, http.StatusOK, health); err != nil {
		internalErr := ferrors.WrapError(err, ferrors.CategoryInternal, "failed to write health response").
			Build()
		h.errorAdapter.WriteErrorResponse(w, r, internalErr)
	}
}
