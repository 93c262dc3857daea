// Package metrics provides the Recorder interface mdpage components
// report build, link-check, and daemon observations through, a
// NoopRecorder default, and a Prometheus-backed implementation.
package metrics

import (
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPHandler returns an http.Handler serving the registry in
// Prometheus exposition format.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
