// Package middleware provides HTTP middleware for logging and panic recovery for mdpage servers.
package middleware

import (
	"bufio"
	"log/slog"
	"net"
	"net/http"
	"time"

	ferrors "git.home.luguber.info/inful/mdpage/internal/foundation/errors"
	"git.home.luguber.info/inful/mdpage/internal/logfields"
)

// Chain returns a middleware wrapper that applies logging and panic recovery around a handler.
func Chain(logger *slog.Logger, adapter *ferrors.HTTPErrorAdapter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return loggingMiddleware(logger, panicRecoveryMiddleware(logger, adapter, next))
	}
}

// loggingMiddleware logs method, path, status, duration, user agent, and remote addr.
func loggingMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start)
		logger.Info("HTTP request",
			logfields.Method(r.Method),
			logfields.Path(r.URL.Path),
			logfields.Status(wrapped.statusCode),
			slog.Duration("duration", duration),
			logfields.UserAgent(r.UserAgent()),
			logfields.RemoteAddr(r.RemoteAddr))
	})
}

// panicRecoveryMiddleware recovers from panics and writes a structured error response via the HTTPErrorAdapter.
func panicRecoveryMiddleware(logger *slog.Logger, adapter *ferrors.HTTPErrorAdapter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("HTTP handler panic",
					"error", err,
					logfields.Path(r.URL.Path),
					logfields.Method(r.Method),
					logfields.RemoteAddr(r.RemoteAddr))

				panicErr := ferrors.InternalError("internal server error").
					WithContext("path", r.URL.Path).
					WithContext("method", r.Method).
					Build()

				adapter.WriteErrorResponse(w, r, panicErr)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// responseWriter captures status codes for logging.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush forwards to the wrapped writer so event streams keep working.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack forwards to the wrapped writer so websocket upgrades keep working.
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hj, ok := rw.ResponseWriter.(http.Hijacker); ok {
		return hj.Hijack()
	}
	return nil, nil, http.ErrNotSupported
}
