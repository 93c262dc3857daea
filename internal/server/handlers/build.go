package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"git.home.luguber.info/inful/mdpage/internal/config"
	"git.home.luguber.info/inful/mdpage/internal/eventstore"
	ferrors "git.home.luguber.info/inful/mdpage/internal/foundation/errors"
	"git.home.luguber.info/inful/mdpage/internal/server/responses"
)

// BuildHandlers contains status, history, and trigger HTTP handlers.
type BuildHandlers struct {
	cfg          *config.Config
	runtime      BuildRuntime
	errorAdapter *ferrors.HTTPErrorAdapter
}

// BuildRuntime defines the daemon surface needed by build handlers.
type BuildRuntime interface {
	Status() string
	StartTime() time.Time
	ActiveBuild() *eventstore.BuildSummary
	LastBuild() *eventstore.BuildSummary
	History(limit int) []*eventstore.BuildSummary
	BuildCounts() (total, succeeded, failed int)
	LastSyncTime() time.Time
	TriggerBuild() string
}

// NewBuildHandlers creates a new build handlers instance.
func NewBuildHandlers(cfg *config.Config, runtime BuildRuntime) *BuildHandlers {
	return &BuildHandlers{
		cfg:          cfg,
		runtime:      runtime,
		errorAdapter: ferrors.NewHTTPErrorAdapter(slog.Default()),
	}
}

// HandleStatus handles the daemon status endpoint.
func (h *BuildHandlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		err := ferrors.ValidationError("invalid HTTP method").
			WithContext("method", r.Method).
			WithContext("allowed_method", "GET").
			Build()
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	if h.runtime == nil {
		err := ferrors.DaemonError("daemon not available").
			WithContext("service", "status").
			Build()
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	total, succeeded, failed := h.runtime.BuildCounts()
	status := &responses.StatusResponse{
		Status:      h.runtime.Status(),
		Uptime:      time.Since(h.runtime.StartTime()).Seconds(),
		StartTime:   h.runtime.StartTime(),
		Site:        h.siteSummary(),
		Builds:      responses.BuildCounters{Total: total, Succeeded: succeeded, Failed: failed},
		ActiveBuild: buildView(h.runtime.ActiveBuild()),
		LastBuild:   buildView(h.runtime.LastBuild()),
		Timestamp:   time.Now().UTC(),
	}
	if t := h.runtime.LastSyncTime(); !t.IsZero() {
		status.LastSync = &t
	}

	if err := writeJSON(w, r, http.StatusOK, status); err != nil {
		internalErr := ferrors.WrapError(err, ferrors.CategoryInternal, "failed to encode status").
			Build()
		h.errorAdapter.WriteErrorResponse(w, r, internalErr)
	}
}

// HandleHistory handles the build history endpoint. An optional limit
// query parameter caps the number of builds returned, newest first.
func (h *BuildHandlers) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		err := ferrors.ValidationError("invalid HTTP method").
			WithContext("method", r.Method).
			WithContext("allowed_method", "GET").
			Build()
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	if h.runtime == nil {
		err := ferrors.DaemonError("daemon not available").
			WithContext("service", "history").
			Build()
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			verr := ferrors.ValidationError("invalid limit parameter").
				WithContext("limit", raw).
				Build()
			h.errorAdapter.WriteErrorResponse(w, r, verr)
			return
		}
		limit = n
	}

	summaries := h.runtime.History(limit)
	builds := make([]responses.BuildView, 0, len(summaries))
	for _, s := range summaries {
		if v := buildView(s); v != nil {
			builds = append(builds, *v)
		}
	}
	resp := &responses.HistoryResponse{
		Status:    "ok",
		Builds:    builds,
		Count:     len(builds),
		Timestamp: time.Now().UTC(),
	}

	if err := writeJSON(w, r, http.StatusOK, resp); err != nil {
		internalErr := ferrors.WrapError(err, ferrors.CategoryInternal, "failed to encode history").
			Build()
		h.errorAdapter.WriteErrorResponse(w, r, internalErr)
	}
}

// HandleTriggerBuild handles the manual build trigger endpoint.
func (h *BuildHandlers) HandleTriggerBuild(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		err := ferrors.ValidationError("invalid HTTP method").
			WithContext("method", r.Method).
			WithContext("allowed_method", "POST").
			Build()
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	if h.runtime == nil {
		err := ferrors.DaemonError("daemon not available").
			WithContext("service", "build").
			Build()
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	buildID := h.runtime.TriggerBuild()
	resp := &responses.TriggerResponse{Status: "triggered", BuildID: buildID}
	if err := writeJSON(w, r, http.StatusOK, resp); err != nil {
		internalErr := ferrors.WrapError(err, ferrors.CategoryInternal, "failed to encode trigger response").
			Build()
		h.errorAdapter.WriteErrorResponse(w, r, internalErr)
	}
}

func (h *BuildHandlers) siteSummary() responses.SiteSummary {
	s := responses.SiteSummary{}
	if h.cfg == nil {
		return s
	}
	s.Title = h.cfg.Site.Title
	s.Description = h.cfg.Site.Description
	s.BaseURL = h.cfg.Site.BaseURL
	s.SourceDir = h.cfg.Source.Dir
	s.OutputDir = h.cfg.Output.Directory
	return s
}

// buildView converts an event store summary into its API shape.
func buildView(s *eventstore.BuildSummary) *responses.BuildView {
	if s == nil {
		return nil
	}
	v := &responses.BuildView{
		ID:           s.BuildID,
		Status:       s.Status,
		Trigger:      s.Trigger,
		StartedAt:    s.StartedAt,
		CompletedAt:  s.CompletedAt,
		Outcome:      s.Outcome,
		Articles:     s.Articles,
		Assets:       s.Assets,
		SkipReason:   s.SkipReason,
		ErrorStage:   s.ErrorStage,
		ErrorMessage: s.ErrorMessage,
	}
	if s.Duration > 0 {
		v.Duration = s.Duration.Round(time.Millisecond).String()
	}
	return v
}
