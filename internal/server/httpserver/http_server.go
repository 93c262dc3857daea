package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"git.home.luguber.info/inful/mdpage/internal/config"
	ferrors "git.home.luguber.info/inful/mdpage/internal/foundation/errors"
	"git.home.luguber.info/inful/mdpage/internal/server/handlers"
	smw "git.home.luguber.info/inful/mdpage/internal/server/middleware"
)

// Server manages the serve-mode HTTP endpoints: the rendered site on one
// port and the admin API on another.
type Server struct {
	siteServer   *http.Server
	adminServer  *http.Server
	cfg          *config.Config
	opts         Options
	errorAdapter *ferrors.HTTPErrorAdapter

	// Handler modules
	monitoringHandlers *handlers.MonitoringHandlers
	buildHandlers      *handlers.BuildHandlers

	// middleware chain
	mchain func(http.Handler) http.Handler
}

// New constructs a new HTTP server wiring instance.
func New(cfg *config.Config, runtime Runtime, opts Options) *Server {
	s := &Server{
		cfg:          cfg,
		opts:         opts,
		errorAdapter: ferrors.NewHTTPErrorAdapter(slog.Default()),
	}

	s.monitoringHandlers = handlers.NewMonitoringHandlers(runtime)
	s.buildHandlers = handlers.NewBuildHandlers(cfg, runtime)
	s.mchain = smw.Chain(slog.Default(), s.errorAdapter)

	return s
}

// Start binds both ports and launches the site and admin servers.
func (s *Server) Start(ctx context.Context) error {
	if s.cfg.Serve == nil {
		return errors.New("serve configuration required for HTTP servers")
	}

	// Pre-bind both ports so we fail fast with one aggregate error instead
	// of logging independent 'address already in use' lines after partial
	// initialization.
	type preBind struct {
		name string
		port int
		ln   net.Listener
	}
	binds := []preBind{
		{name: "site", port: s.cfg.Serve.HTTP.SitePort},
		{name: "admin", port: s.cfg.Serve.HTTP.AdminPort},
	}
	var bindErrs []error
	lc := net.ListenConfig{}
	for i := range binds {
		addr := fmt.Sprintf(":%d", binds[i].port)
		ln, err := lc.Listen(ctx, "tcp", addr)
		if err != nil {
			bindErrs = append(bindErrs, fmt.Errorf("%s port %d: %w", binds[i].name, binds[i].port, err))
			continue
		}
		binds[i].ln = ln
	}
	if len(bindErrs) > 0 {
		// Close any successful listeners before returning
		for _, b := range binds {
			if b.ln != nil {
				_ = b.ln.Close()
			}
		}
		return fmt.Errorf("http startup failed: %w", errors.Join(bindErrs...))
	}

	if err := s.startSiteServerWithListener(ctx, binds[0].ln); err != nil {
		return fmt.Errorf("failed to start site server: %w", err)
	}
	if err := s.startAdminServerWithListener(ctx, binds[1].ln); err != nil {
		return fmt.Errorf("failed to start admin server: %w", err)
	}

	slog.Info("HTTP servers started",
		slog.Int("site_port", s.cfg.Serve.HTTP.SitePort),
		slog.Int("admin_port", s.cfg.Serve.HTTP.AdminPort))
	return nil
}

// Stop gracefully shuts down both HTTP servers.
func (s *Server) Stop(ctx context.Context) error {
	var errs []error

	// Stop servers in reverse order
	if s.adminServer != nil {
		if err := s.adminServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("admin server shutdown: %w", err))
		}
	}

	if s.siteServer != nil {
		if err := s.siteServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("site server shutdown: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	slog.Info("HTTP servers stopped")
	return nil
}

// startServerWithListener launches an http.Server on a pre-bound listener
// or binds itself. It standardizes goroutine startup and error logging
// across server types.
func (s *Server) startServerWithListener(kind string, srv *http.Server, ln net.Listener) error {
	go func() {
		var err error
		if ln != nil {
			err = srv.Serve(ln)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			slog.Error(fmt.Sprintf("%s server error", kind), "error", err)
		}
	}()
	return nil
}
