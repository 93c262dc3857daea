package httpserver

import (
	"context"
	"fmt"
	"html"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const defaultSiteDir = "./public"

// startSiteServerWithListener serves the rendered site plus the live
// reload endpoints on a pre-bound listener.
func (s *Server) startSiteServerWithListener(_ context.Context, ln net.Listener) error {
	mux := http.NewServeMux()

	// Probe endpoints on the site port as well, for probe configs that
	// only see this port.
	mux.HandleFunc("/healthz", s.monitoringHandlers.HandleHealth)
	mux.HandleFunc("/readyz", s.handleReadiness)

	if s.opts.LiveReload != nil {
		mux.Handle("/livereload", s.opts.LiveReload)
		mux.HandleFunc("/livereload.js", serveLiveReloadScript)
	}

	// The root handler resolves the output directory per request so the
	// server can come up before the first build finishes and switch to
	// the rendered site without a restart.
	rootHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		root := s.resolveSiteRoot()
		if s.siteNotRendered(root) {
			s.handlePlaceholderPage(w, r, root)
			return
		}
		http.FileServer(http.Dir(root)).ServeHTTP(w, r)
	})

	rootWithCaching := addCacheControlHeaders(rootHandler)
	rootWithMiddleware := http.Handler(rootWithCaching)
	if s.opts.LiveReload != nil {
		rootWithMiddleware = injectLiveReload(rootWithCaching)
	}
	mux.Handle("/", s.mchain(rootWithMiddleware))

	// No write timeout: /livereload holds its connection open until the
	// client goes away.
	s.siteServer = &http.Server{Handler: mux, ReadTimeout: 30 * time.Second, WriteTimeout: 0, IdleTimeout: 300 * time.Second}
	return s.startServerWithListener("site", s.siteServer, ln)
}

// resolveSiteRoot returns the absolute output directory.
func (s *Server) resolveSiteRoot() string {
	out := s.cfg.Output.Directory
	if out == "" {
		out = defaultSiteDir
	}
	if !filepath.IsAbs(out) {
		if abs, err := filepath.Abs(out); err == nil {
			out = abs
		}
	}
	return out
}

// siteNotRendered reports whether the output directory lacks a rendered
// site. The builder always writes index.html last, so its presence marks
// a completed build.
func (s *Server) siteNotRendered(root string) bool {
	_, err := os.Stat(filepath.Join(root, "index.html"))
	return os.IsNotExist(err)
}

// handlePlaceholderPage chooses between the build error page and the
// pending page while no rendered site exists.
func (s *Server) handlePlaceholderPage(w http.ResponseWriter, r *http.Request, root string) {
	if s.opts.BuildStatus != nil {
		if hasError, buildErr, hasGoodBuild := s.opts.BuildStatus.GetStatus(); hasError && !hasGoodBuild {
			s.renderBuildErrorPage(w, buildErr)
			return
		}
	}

	if r.URL.Path == "/" || r.URL.Path == "" {
		s.renderBuildPendingPage(w)
		return
	}

	// Non-root paths fall through to the file server and 404 naturally.
	http.FileServer(http.Dir(root)).ServeHTTP(w, r)
}

// renderBuildErrorPage renders an error page when the build failed before
// producing any output.
func (s *Server) renderBuildErrorPage(w http.ResponseWriter, buildErr error) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusServiceUnavailable)

	errorMsg := "Unknown error"
	if buildErr != nil {
		errorMsg = buildErr.Error()
	}

	_, _ = fmt.Fprintf(w, `<!doctype html><html><head><meta charset="utf-8"><title>Build failed</title><style>body{font-family:sans-serif;max-width:800px;margin:50px auto;padding:20px}h1{color:#d32f2f}pre{background:#f5f5f5;padding:15px;border-radius:4px;overflow-x:auto}</style></head><body><h1>Build failed</h1><p>The site failed to build. Fix the error below and save to rebuild automatically.</p><h2>Error details:</h2><pre>%s</pre><p><small>This page refreshes automatically once the error is fixed.</small></p>%s</body></html>`, html.EscapeString(errorMsg), s.liveReloadScriptTag())
}

// renderBuildPendingPage renders a page shown while the first build is
// still in progress.
func (s *Server) renderBuildPendingPage(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusServiceUnavailable)

	_, _ = fmt.Fprintf(w, `<!doctype html><html><head><meta charset="utf-8"><title>Site rendering</title></head><body><h1>The site is being prepared</h1><p>Nothing has been rendered yet. This page is replaced automatically once the first build completes.</p>%s</body></html>`, s.liveReloadScriptTag())
}

func (s *Server) liveReloadScriptTag() string {
	if s.opts.LiveReload == nil {
		return ""
	}
	return liveReloadScriptTag
}

// handleReadiness reports ready only once a rendered site exists.
func (s *Server) handleReadiness(w http.ResponseWriter, _ *http.Request) {
	if s.siteNotRendered(s.resolveSiteRoot()) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready: site not rendered"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// addCacheControlHeaders wraps a handler to add Cache-Control headers for
// static assets. Hashed assets get long cache lifetimes; HTML stays
// uncached so content updates are immediately visible.
func addCacheControlHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if cc := determineCacheControl(r.URL.Path); cc != "" {
			w.Header().Set("Cache-Control", cc)
		}
		next.ServeHTTP(w, r)
	})
}

// determineCacheControl returns the Cache-Control value for a path.
func determineCacheControl(path string) string {
	// Stylesheets and scripts - 1 year
	if strings.HasSuffix(path, ".css") || strings.HasSuffix(path, ".js") {
		return "public, max-age=31536000, immutable"
	}

	// Web fonts - 1 year
	if strings.HasSuffix(path, ".woff") || strings.HasSuffix(path, ".woff2") ||
		strings.HasSuffix(path, ".ttf") || strings.HasSuffix(path, ".eot") ||
		strings.HasSuffix(path, ".otf") {
		return "public, max-age=31536000, immutable"
	}

	// Images - 1 week
	if strings.HasSuffix(path, ".png") || strings.HasSuffix(path, ".jpg") ||
		strings.HasSuffix(path, ".jpeg") || strings.HasSuffix(path, ".gif") ||
		strings.HasSuffix(path, ".svg") || strings.HasSuffix(path, ".webp") ||
		strings.HasSuffix(path, ".ico") {
		return "public, max-age=604800"
	}

	// Downloadable files - 1 day
	if strings.HasSuffix(path, ".pdf") || strings.HasSuffix(path, ".zip") ||
		strings.HasSuffix(path, ".tar") || strings.HasSuffix(path, ".gz") ||
		strings.HasSuffix(path, ".xz") {
		return "public, max-age=86400"
	}

	// JSON data files - 5 minutes
	if strings.HasSuffix(path, ".json") {
		return "public, max-age=300"
	}

	// XML files (feeds, sitemaps) - 1 hour
	if strings.HasSuffix(path, ".xml") {
		return "public, max-age=3600"
	}

	// HTML pages and directories - no cache
	if strings.HasSuffix(path, ".html") || path == "/" || !strings.Contains(path, ".") {
		return "no-cache, must-revalidate"
	}

	return ""
}
