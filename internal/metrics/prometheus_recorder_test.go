package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)

	pr.ObserveStageDuration("render", 150*time.Millisecond)
	pr.ObserveBuildDuration(500 * time.Millisecond)
	pr.IncStageResult("render", ResultSuccess)
	pr.IncBuildOutcome("success")
	pr.SetArticlesRendered(12)
	pr.IncRetry("clone")
	pr.IncRetryExhausted("clone")
	pr.ObserveLinkCheckDuration(2 * time.Second)
	pr.SetBrokenLinks(3)
	pr.IncWatcherEvent("write")
	pr.IncRebuild("watch")
	pr.SetLiveReloadClients(2)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(mfs) != 12 {
		t.Fatalf("expected 12 metric families, got %d", len(mfs))
	}
	for _, mf := range mfs {
		if !strings.HasPrefix(mf.GetName(), "mdpage_") {
			t.Errorf("metric %s lacks mdpage namespace", mf.GetName())
		}
	}
}

func TestPrometheusRecorderNilReceiver(t *testing.T) {
	var pr *PrometheusRecorder
	// Must not panic.
	pr.ObserveBuildDuration(time.Second)
	pr.IncBuildOutcome("failed")
	pr.SetArticlesRendered(1)
}

func TestHTTPHandlerServesExposition(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.SetArticlesRendered(7)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	HTTPHandler(reg).ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "mdpage_articles_rendered 7") {
		t.Fatalf("exposition missing gauge:\n%s", rec.Body.String())
	}
}
