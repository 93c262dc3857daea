package httpserver

import (
	"net/http"
	"time"

	"git.home.luguber.info/inful/mdpage/internal/eventstore"
)

// Runtime is the daemon surface required by the shared HTTP handlers.
// It intentionally matches the interfaces in internal/server/handlers.
type Runtime interface {
	Status() string
	StartTime() time.Time
	Building() bool

	ActiveBuild() *eventstore.BuildSummary
	LastBuild() *eventstore.BuildSummary
	History(limit int) []*eventstore.BuildSummary
	BuildCounts() (total, succeeded, failed int)
	LastSyncTime() time.Time

	TriggerBuild() string
}

// BuildStatus reports the outcome of the most recent build attempt so the
// site server can render an error page while no good output exists yet.
type BuildStatus interface {
	GetStatus() (hasError bool, err error, hasGoodBuild bool)
}

// Options configures additional server wiring that is runtime-specific.
type Options struct {
	// Optional: live reload support on the site port.
	LiveReload *LiveReloadHub

	// Optional: build event stream on the admin port.
	Events *EventsHub

	// Optional: build status tracker for the placeholder pages.
	BuildStatus BuildStatus

	// Optional: Prometheus handler mounted at the configured metrics path.
	MetricsHandler http.Handler
}
