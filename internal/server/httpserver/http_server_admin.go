package httpserver

import (
	"context"
	"net"
	"net/http"
	"time"

	"git.home.luguber.info/inful/mdpage/internal/config"
)

// startAdminServerWithListener serves the admin API: health, status,
// history, build trigger, metrics, and the event stream.
func (s *Server) startAdminServerWithListener(_ context.Context, ln net.Listener) error {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", s.monitoringHandlers.HandleHealth)
	mux.HandleFunc("/readyz", s.handleReadiness)

	mux.HandleFunc("/status", s.buildHandlers.HandleStatus)
	mux.HandleFunc("/api/history", s.buildHandlers.HandleHistory)
	mux.HandleFunc("/api/build/trigger", s.buildHandlers.HandleTriggerBuild)

	if s.cfg.Serve.Metrics.Enabled && s.opts.MetricsHandler != nil {
		path := s.cfg.Serve.Metrics.Path
		if path == "" {
			path = config.DefaultMetricsPath
		}
		mux.Handle(path, s.opts.MetricsHandler)
	}

	if s.opts.Events != nil {
		mux.HandleFunc("/events", s.opts.Events.HandleWS)
	}

	s.adminServer = &http.Server{Handler: s.mchain(mux), ReadTimeout: 30 * time.Second, WriteTimeout: 30 * time.Second, IdleTimeout: 120 * time.Second}
	return s.startServerWithListener("admin", s.adminServer, ln)
}
