// Package daemon runs mdpage serve mode: an initial site build, a
// filesystem watcher feeding debounced rebuilds, the site and admin
// HTTP servers, and optional scheduled link checks. Build lifecycle
// events are persisted to the event store and streamed to admin
// subscribers.
package daemon

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/mdpage/internal/config"
	"git.home.luguber.info/inful/mdpage/internal/eventstore"
	ferrors "git.home.luguber.info/inful/mdpage/internal/foundation/errors"
	"git.home.luguber.info/inful/mdpage/internal/linkcheck"
	"git.home.luguber.info/inful/mdpage/internal/logfields"
	"git.home.luguber.info/inful/mdpage/internal/metrics"
	"git.home.luguber.info/inful/mdpage/internal/server/httpserver"
	"git.home.luguber.info/inful/mdpage/internal/site"
)

// Status represents the current state of the daemon.
type Status string

const (
	StatusStopped  Status = "stopped"
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusStopping Status = "stopping"
	StatusError    Status = "error"
)

// historySize bounds the in-memory build history projection.
const historySize = 100

// Daemon owns the serve-mode components and their lifecycle.
type Daemon struct {
	cfg       *config.Config
	sourceDir string

	status    atomic.Value // Status
	startTime time.Time
	building  atomic.Bool

	builder        *site.Builder
	rec            metrics.Recorder
	metricsHandler http.Handler

	store      eventstore.Store
	projection *eventstore.BuildHistoryProjection
	linkCache  linkcheck.Cache

	liveReload *httpserver.LiveReloadHub
	events     *httpserver.EventsHub
	httpServer *httpserver.Server
	scheduler  *Scheduler

	queue       *rebuildQueue
	buildStatus *buildStatus

	cancel  context.CancelFunc
	watcher *watcher
	wg      sync.WaitGroup
}

// New assembles a daemon from configuration. sourceDir is the resolved
// article tree to watch and build; the caller handles cloning when the
// source is a repository.
func New(cfg *config.Config, sourceDir string) (*Daemon, error) {
	if cfg == nil {
		return nil, ferrors.ValidationError("configuration is required").Build()
	}
	if cfg.Serve == nil {
		return nil, ferrors.ValidationError("serve configuration is required").Build()
	}

	absSource, err := filepath.Abs(sourceDir)
	if err != nil {
		return nil, ferrors.DaemonError("failed to resolve source directory").
			WithCause(err).
			WithContext("source_dir", sourceDir).
			Build()
	}
	if st, statErr := os.Stat(absSource); statErr != nil || !st.IsDir() {
		return nil, ferrors.DaemonError("source directory not found").
			WithContext("source_dir", absSource).
			Build()
	}

	d := &Daemon{
		cfg:         cfg,
		sourceDir:   absSource,
		rec:         metrics.NoopRecorder{},
		linkCache:   linkcheck.NoopCache{},
		queue:       newRebuildQueue(),
		buildStatus: &buildStatus{},
	}
	d.status.Store(StatusStopped)

	if cfg.Serve.Metrics.Enabled {
		reg := prom.NewRegistry()
		d.rec = metrics.NewPrometheusRecorder(reg)
		d.metricsHandler = metrics.HTTPHandler(reg)
	}

	d.builder = site.NewBuilder(cfg, site.WithRecorder(d.rec))

	store, err := eventstore.NewSQLiteStore(cfg.Serve.Storage.EventDB)
	if err != nil {
		return nil, ferrors.DaemonError("failed to open event store").
			WithCause(err).
			WithContext("event_db", cfg.Serve.Storage.EventDB).
			Build()
	}
	d.store = store
	d.projection = eventstore.NewBuildHistoryProjection(store, historySize)
	if err := d.projection.Rebuild(context.Background()); err != nil {
		// Non-fatal: the projection starts empty and refills as builds run.
		slog.Warn("Failed to rebuild build history projection", logfields.Error(err))
	}

	if cfg.Serve.NATS != nil {
		cache, err := linkcheck.NewNATSCache(cfg.Serve.NATS)
		if err != nil {
			_ = store.Close()
			return nil, ferrors.DaemonError("failed to connect link cache").
				WithCause(err).
				WithContext("nats_url", cfg.Serve.NATS.URL).
				Build()
		}
		d.linkCache = cache
	}

	d.liveReload = httpserver.NewLiveReloadHub(d.rec)
	d.events = httpserver.NewEventsHub()
	d.httpServer = httpserver.New(cfg, d, httpserver.Options{
		LiveReload:     d.liveReload,
		Events:         d.events,
		BuildStatus:    d.buildStatus,
		MetricsHandler: d.metricsHandler,
	})

	d.scheduler, err = NewScheduler()
	if err != nil {
		_ = d.linkCache.Close()
		_ = store.Close()
		return nil, ferrors.DaemonError("failed to create scheduler").
			WithCause(err).
			Build()
	}

	return d, nil
}

// Start brings up the HTTP servers, the watcher, the rebuild worker,
// and the schedule, then enqueues the initial build. It returns once
// everything is running; Stop shuts it all down.
func (d *Daemon) Start(ctx context.Context) error {
	if cur := d.currentStatus(); cur != StatusStopped {
		return ferrors.DaemonError("daemon is not in stopped state").
			WithContext("status", string(cur)).
			Build()
	}
	d.status.Store(StatusStarting)
	d.startTime = time.Now()

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	if err := d.httpServer.Start(runCtx); err != nil {
		d.status.Store(StatusError)
		cancel()
		return err
	}

	w, err := newWatcher(d.sourceDir, d.cfg.Output.Directory, d.rec)
	if err != nil {
		_ = d.httpServer.Stop(ctx)
		d.status.Store(StatusError)
		cancel()
		return err
	}
	d.watcher = w

	debounce := time.Duration(d.cfg.Serve.Watch.DebounceMS) * time.Millisecond
	if debounce <= 0 {
		debounce = config.DefaultDebounceMS * time.Millisecond
	}
	trigger := debounced(debounce, func() {
		d.queue.offer(rebuildRequest{Trigger: TriggerWatch})
	})

	d.wg.Add(3)
	go func() {
		defer d.wg.Done()
		d.events.Run(runCtx)
	}()
	go func() {
		defer d.wg.Done()
		d.runWorker(runCtx)
	}()
	go func() {
		defer d.wg.Done()
		d.watcher.run(runCtx, trigger)
	}()

	d.startSchedule()

	// Initial build; the servers answer with the pending page until it
	// lands.
	d.queue.offer(rebuildRequest{Trigger: TriggerInitial})

	d.status.Store(StatusRunning)
	slog.Info("mdpage daemon started",
		logfields.Path(d.sourceDir),
		slog.String("output", d.cfg.Output.Directory),
		slog.Int("site_port", d.cfg.Serve.HTTP.SitePort),
		slog.Int("admin_port", d.cfg.Serve.HTTP.AdminPort))
	return nil
}

// startSchedule wires the periodic link check when configured. A plain
// duration schedules an interval job; anything else is handed to the
// cron parser.
func (d *Daemon) startSchedule() {
	expr := strings.TrimSpace(d.cfg.Serve.Schedule)
	if expr == "" {
		return
	}
	if d.cfg.LinkCheck == nil || !d.cfg.LinkCheck.Enabled {
		slog.Warn("Link check schedule ignored; linkcheck is disabled",
			slog.String("schedule", expr))
		return
	}

	task := func() { d.runScheduledLinkCheck() }

	var (
		jobID string
		err   error
	)
	if interval, parseErr := time.ParseDuration(expr); parseErr == nil {
		jobID, err = d.scheduler.ScheduleEvery("linkcheck", interval, task)
	} else {
		jobID, err = d.scheduler.ScheduleCron("linkcheck", expr, task)
	}
	if err != nil {
		slog.Error("Failed to schedule link check",
			slog.String("schedule", expr),
			logfields.Error(err))
		return
	}

	d.scheduler.Start()
	slog.Info("Link check scheduled",
		slog.String("schedule", expr),
		logfields.ScheduleID(jobID))
}

// Stop shuts the daemon down: schedule first so no new work starts,
// then the workers, then the servers and storage. The context bounds
// how long Stop waits for in-flight work.
func (d *Daemon) Stop(ctx context.Context) error {
	cur := d.currentStatus()
	if cur == StatusStopped || cur == StatusStopping {
		return nil
	}
	d.status.Store(StatusStopping)
	slog.Info("Stopping mdpage daemon")

	if err := d.scheduler.Stop(ctx); err != nil {
		slog.Error("Failed to stop scheduler", logfields.Error(err))
	}

	if d.cancel != nil {
		d.cancel()
	}
	if d.watcher != nil {
		d.watcher.close()
	}

	var stopErr error
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		stopErr = ctx.Err()
	}

	if err := d.httpServer.Stop(ctx); err != nil {
		slog.Error("Failed to stop HTTP servers", logfields.Error(err))
	}
	d.liveReload.Shutdown()

	if err := d.linkCache.Close(); err != nil {
		slog.Error("Failed to close link cache", logfields.Error(err))
	}
	if err := d.store.Close(); err != nil {
		slog.Error("Failed to close event store", logfields.Error(err))
	}

	d.status.Store(StatusStopped)
	slog.Info("mdpage daemon stopped", slog.Duration("uptime", time.Since(d.startTime)))
	return stopErr
}

func (d *Daemon) currentStatus() Status {
	status, ok := d.status.Load().(Status)
	if !ok {
		return StatusError
	}
	return status
}
