package linkcheck

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"git.home.luguber.info/inful/mdpage/internal/config"
)

func testConfig(external bool) *config.Config {
	return &config.Config{
		Site: config.SiteConfig{Title: "Test", BaseURL: "http://site.example"},
		Build: config.BuildConfig{
			Concurrency:       2,
			MaxRetries:        2,
			RetryBackoff:      config.RetryBackoffFixed,
			RetryInitialDelay: "1ms",
			RetryMaxDelay:     "5ms",
		},
		LinkCheck: &config.LinkCheckConfig{
			Enabled:     true,
			External:    external,
			Timeout:     "2s",
			Concurrency: 4,
		},
	}
}

func writeSite(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
}

// memCache is an always-fresh in-memory Cache for tests.
type memCache struct {
	mu      sync.Mutex
	entries map[string]*CacheEntry
	events  []*BrokenEvent
}

func newMemCache() *memCache {
	return &memCache{entries: map[string]*CacheEntry{}}
}

func (m *memCache) Get(_ context.Context, url string) (*CacheEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[url]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, nil
}

func (m *memCache) Set(_ context.Context, entry *CacheEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *entry
	m.entries[entry.URL] = &cp
	return nil
}

func (m *memCache) Fresh(entry *CacheEntry) bool { return entry != nil }

func (m *memCache) Publish(_ context.Context, event *BrokenEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *memCache) PublishEvent(context.Context, any) error { return nil }

func (m *memCache) Close() error { return nil }

func TestRunInternalLinks(t *testing.T) {
	siteDir := t.TempDir()
	writeSite(t, siteDir, map[string]string{
		"index.html": `<html><body>
<a href="guides/setup.html">Setup</a>
<a href="missing.html">Missing</a>
<a href="#top">Top</a>
<img src="logo.png">
</body></html>`,
		"guides/setup.html": `<html><body><a href="../index.html">Home</a></body></html>`,
		"logo.png":          "png",
	})

	checker := New(testConfig(false))
	result, err := checker.Run(t.Context(), siteDir)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	// index: setup + missing + logo, guides: ../index.html
	if result.Checked != 4 {
		t.Errorf("checked=%d, want 4", result.Checked)
	}
	if len(result.Broken) != 1 {
		t.Fatalf("expected 1 broken link, got %d: %+v", len(result.Broken), result.Broken)
	}

	b := result.Broken[0]
	if b.URL != "missing.html" {
		t.Errorf("broken url=%q, want missing.html", b.URL)
	}
	if !b.Internal {
		t.Error("expected broken link to be internal")
	}
	if len(b.Pages) != 1 || b.Pages[0] != "index.html" {
		t.Errorf("broken pages=%v, want [index.html]", b.Pages)
	}
	if result.RunID == "" {
		t.Error("expected a run id")
	}
}

func TestRunDirectoryLinks(t *testing.T) {
	siteDir := t.TempDir()
	writeSite(t, siteDir, map[string]string{
		"index.html": `<html><body>
<a href="/guides/">Guides</a>
<a href="/archive/">Archive</a>
</body></html>`,
		"guides/index.html": "<html></html>",
		"archive/notes.txt": "no index here",
	})

	checker := New(testConfig(false))
	result, err := checker.Run(t.Context(), siteDir)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(result.Broken) != 1 {
		t.Fatalf("expected 1 broken link, got %d: %+v", len(result.Broken), result.Broken)
	}
	if result.Broken[0].URL != "/archive/" {
		t.Errorf("broken url=%q, want /archive/", result.Broken[0].URL)
	}
}

func TestRunExternalLinks(t *testing.T) {
	var flakyCalls int32

	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/flaky", func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&flakyCalls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/auth", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/head-blocked", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	siteDir := t.TempDir()
	page := strings.ReplaceAll(`<html><body>
<a href="SRV/ok">ok</a>
<a href="SRV/missing">missing</a>
<a href="SRV/flaky">flaky</a>
<a href="SRV/auth">auth</a>
<a href="SRV/head-blocked">head blocked</a>
</body></html>`, "SRV", srv.URL)
	writeSite(t, siteDir, map[string]string{"index.html": page})

	checker := New(testConfig(true), WithHTTPClient(srv.Client()))
	result, err := checker.Run(t.Context(), siteDir)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if result.Checked != 5 {
		t.Errorf("checked=%d, want 5", result.Checked)
	}
	if len(result.Broken) != 1 {
		t.Fatalf("expected 1 broken link, got %d: %+v", len(result.Broken), result.Broken)
	}

	b := result.Broken[0]
	if b.URL != srv.URL+"/missing" {
		t.Errorf("broken url=%q, want %s/missing", b.URL, srv.URL)
	}
	if b.Status != http.StatusNotFound {
		t.Errorf("broken status=%d, want 404", b.Status)
	}
	if !strings.Contains(b.Error, "404") {
		t.Errorf("broken error=%q, want mention of 404", b.Error)
	}
	if b.Internal {
		t.Error("expected broken link to be external")
	}
	if atomic.LoadInt32(&flakyCalls) < 2 {
		t.Errorf("expected the flaky URL to be retried, got %d calls", flakyCalls)
	}
}

func TestRunDeduplicatesExternalURLs(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	siteDir := t.TempDir()
	link := `<a href="` + srv.URL + `/shared">shared</a>`
	writeSite(t, siteDir, map[string]string{
		"a.html": "<html><body>" + link + "</body></html>",
		"b.html": "<html><body>" + link + "</body></html>",
	})

	checker := New(testConfig(true), WithHTTPClient(srv.Client()))
	result, err := checker.Run(t.Context(), siteDir)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("expected 1 request for the shared URL, got %d", got)
	}
	if result.Checked != 1 {
		t.Errorf("checked=%d, want 1", result.Checked)
	}
	if len(result.Broken) != 0 {
		t.Errorf("expected no broken links, got %+v", result.Broken)
	}
}

func TestRunServesFromCache(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	siteDir := t.TempDir()
	writeSite(t, siteDir, map[string]string{
		"index.html": `<html><body><a href="` + srv.URL + `/gone">gone</a></body></html>`,
	})

	cache := newMemCache()
	cfg := testConfig(true)

	first := New(cfg, WithHTTPClient(srv.Client()), WithCache(cache))
	result, err := first.Run(t.Context(), siteDir)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if len(result.Broken) != 1 {
		t.Fatalf("expected 1 broken link, got %d", len(result.Broken))
	}
	firstCalls := atomic.LoadInt32(&calls)
	if firstCalls == 0 {
		t.Fatal("expected the first run to hit the server")
	}

	second := New(cfg, WithHTTPClient(srv.Client()), WithCache(cache))
	result, err = second.Run(t.Context(), siteDir)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(result.Broken) != 1 {
		t.Fatalf("expected cached broken link, got %d", len(result.Broken))
	}
	if result.Broken[0].Status != http.StatusNotFound {
		t.Errorf("cached status=%d, want 404", result.Broken[0].Status)
	}
	if got := atomic.LoadInt32(&calls); got != firstCalls {
		t.Errorf("expected no new requests on the cached run, got %d extra", got-firstCalls)
	}

	// Both runs published the broken link.
	if len(cache.events) != 2 {
		t.Errorf("expected 2 published events, got %d", len(cache.events))
	}
	for _, ev := range cache.events {
		if ev.RunID == "" {
			t.Error("expected published event to carry a run id")
		}
	}
}

func TestRunNoPages(t *testing.T) {
	checker := New(testConfig(false))
	if _, err := checker.Run(t.Context(), t.TempDir()); err == nil {
		t.Fatal("expected an error for an empty site dir")
	}
}

func TestRunCanceledContext(t *testing.T) {
	siteDir := t.TempDir()
	writeSite(t, siteDir, map[string]string{"index.html": "<html></html>"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	checker := New(testConfig(false))
	if _, err := checker.Run(ctx, siteDir); err == nil {
		t.Fatal("expected context error")
	}
}

func TestTargetExists(t *testing.T) {
	siteDir := t.TempDir()
	writeSite(t, siteDir, map[string]string{
		"index.html":        "<html></html>",
		"guides/setup.html": "<html></html>",
		"guides/index.html": "<html></html>",
		"logo.png":          "png",
	})

	tests := []struct {
		page string
		url  string
		want bool
	}{
		{"index.html", "guides/setup.html", true},
		{"index.html", "/guides/setup.html", true},
		{"guides/setup.html", "../index.html", true},
		{"guides/setup.html", "../logo.png", true},
		{"index.html", "guides/", true},
		{"index.html", "guides", true},
		{"index.html", "missing.html", false},
		{"index.html", "guides/missing.html", false},
		{"index.html", "../outside.html", false},
		{"index.html", "setup.html?version=2", false},
		{"guides/setup.html", "setup.html?version=2", true},
		{"index.html", "guides/setup.html#step-1", true},
	}

	for _, tt := range tests {
		if got := targetExists(siteDir, tt.page, tt.url); got != tt.want {
			t.Errorf("targetExists(%q from %q)=%v, want %v", tt.url, tt.page, got, tt.want)
		}
	}
}
