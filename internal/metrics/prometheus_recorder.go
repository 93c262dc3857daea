package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder on Prometheus collectors.
type PrometheusRecorder struct {
	stageDuration     *prom.HistogramVec
	buildDuration     prom.Histogram
	stageResults      *prom.CounterVec
	buildOutcome      *prom.CounterVec
	articlesRendered  prom.Gauge
	retries           *prom.CounterVec
	retriesExhausted  *prom.CounterVec
	linkCheckDuration prom.Histogram
	brokenLinks       prom.Gauge
	watcherEvents     *prom.CounterVec
	rebuilds          *prom.CounterVec
	livereloadClients prom.Gauge
}

// NewPrometheusRecorder constructs and registers mdpage collectors on
// reg. A nil reg gets a fresh private registry, which keeps tests
// isolated from the global default.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}

	pr := &PrometheusRecorder{
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "mdpage",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual build stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "mdpage",
			Name:      "build_duration_seconds",
			Help:      "Total site build duration",
			Buckets:   prom.DefBuckets,
		}),
		stageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "mdpage",
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "mdpage",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
		articlesRendered: prom.NewGauge(prom.GaugeOpts{
			Namespace: "mdpage",
			Name:      "articles_rendered",
			Help:      "Articles rendered by the last completed build",
		}),
		retries: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "mdpage",
			Name:      "retries_total",
			Help:      "Retried operations by name",
		}, []string{"op"}),
		retriesExhausted: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "mdpage",
			Name:      "retries_exhausted_total",
			Help:      "Operations that failed after exhausting retries",
		}, []string{"op"}),
		linkCheckDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "mdpage",
			Name:      "linkcheck_duration_seconds",
			Help:      "Duration of full link verification runs",
			Buckets:   prom.DefBuckets,
		}),
		brokenLinks: prom.NewGauge(prom.GaugeOpts{
			Namespace: "mdpage",
			Name:      "broken_links",
			Help:      "Broken links found by the last verification run",
		}),
		watcherEvents: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "mdpage",
			Name:      "watcher_events_total",
			Help:      "Filesystem watcher events by kind",
		}, []string{"kind"}),
		rebuilds: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "mdpage",
			Name:      "rebuilds_total",
			Help:      "Daemon rebuilds by trigger",
		}, []string{"trigger"}),
		livereloadClients: prom.NewGauge(prom.GaugeOpts{
			Namespace: "mdpage",
			Name:      "livereload_clients",
			Help:      "Currently connected live-reload clients",
		}),
	}

	reg.MustRegister(
		pr.stageDuration,
		pr.buildDuration,
		pr.stageResults,
		pr.buildOutcome,
		pr.articlesRendered,
		pr.retries,
		pr.retriesExhausted,
		pr.linkCheckDuration,
		pr.brokenLinks,
		pr.watcherEvents,
		pr.rebuilds,
		pr.livereloadClients,
	)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome string) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) SetArticlesRendered(n int) {
	if p == nil || p.articlesRendered == nil {
		return
	}
	p.articlesRendered.Set(float64(n))
}

func (p *PrometheusRecorder) IncRetry(op string) {
	if p == nil || p.retries == nil {
		return
	}
	p.retries.WithLabelValues(op).Inc()
}

func (p *PrometheusRecorder) IncRetryExhausted(op string) {
	if p == nil || p.retriesExhausted == nil {
		return
	}
	p.retriesExhausted.WithLabelValues(op).Inc()
}

func (p *PrometheusRecorder) ObserveLinkCheckDuration(d time.Duration) {
	if p == nil || p.linkCheckDuration == nil {
		return
	}
	p.linkCheckDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) SetBrokenLinks(n int) {
	if p == nil || p.brokenLinks == nil {
		return
	}
	p.brokenLinks.Set(float64(n))
}

func (p *PrometheusRecorder) IncWatcherEvent(kind string) {
	if p == nil || p.watcherEvents == nil {
		return
	}
	p.watcherEvents.WithLabelValues(kind).Inc()
}

func (p *PrometheusRecorder) IncRebuild(trigger string) {
	if p == nil || p.rebuilds == nil {
		return
	}
	p.rebuilds.WithLabelValues(trigger).Inc()
}

func (p *PrometheusRecorder) SetLiveReloadClients(n int) {
	if p == nil || p.livereloadClients == nil {
		return
	}
	p.livereloadClients.Set(float64(n))
}
