package linkcheck

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/mdpage/internal/config"
	ferrors "git.home.luguber.info/inful/mdpage/internal/foundation/errors"
	"git.home.luguber.info/inful/mdpage/internal/logfields"
	"git.home.luguber.info/inful/mdpage/internal/metrics"
	"git.home.luguber.info/inful/mdpage/internal/retry"
)

const userAgent = "mdpage-linkcheck/1.0"

// BrokenLink is one unreachable reference, aggregated over the pages
// that carry it.
type BrokenLink struct {
	URL      string   `json:"url"`
	Status   int      `json:"status,omitempty"`
	Error    string   `json:"error"`
	Internal bool     `json:"internal"`
	Pages    []string `json:"pages"`
}

// BrokenEvent is the published form of a broken link. Type
// discriminates it from build events sharing the subject.
type BrokenEvent struct {
	BrokenLink
	Type      string    `json:"type"`
	RunID     string    `json:"run_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Result summarizes one link check run.
type Result struct {
	RunID    string        `json:"run_id"`
	Checked  int           `json:"checked"`
	Broken   []BrokenLink  `json:"broken,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Checker verifies the links of a rendered site. Internal links
// resolve against the output tree on disk; external links are
// verified once per distinct URL.
type Checker struct {
	cfg    *config.Config
	client *http.Client
	cache  Cache
	rec    metrics.Recorder
	policy retry.Policy
}

// Option configures a Checker.
type Option func(*Checker)

// WithCache wires a cache in front of external verification.
func WithCache(cache Cache) Option {
	return func(c *Checker) {
		if cache != nil {
			c.cache = cache
		}
	}
}

// WithRecorder wires a metrics recorder.
func WithRecorder(rec metrics.Recorder) Option {
	return func(c *Checker) {
		if rec != nil {
			c.rec = rec
		}
	}
}

// WithHTTPClient replaces the HTTP client, mainly for tests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Checker) {
		if client != nil {
			c.client = client
		}
	}
}

// New creates a Checker from configuration.
func New(cfg *config.Config, opts ...Option) *Checker {
	timeout := 10 * time.Second
	if cfg.LinkCheck != nil && cfg.LinkCheck.Timeout != "" {
		if d, err := time.ParseDuration(cfg.LinkCheck.Timeout); err == nil && d > 0 {
			timeout = d
		}
	}

	c := &Checker{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		cache:  NoopCache{},
		rec:    metrics.NoopRecorder{},
		policy: retry.FromBuildConfig(&cfg.Build),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run verifies every link in the rendered site under siteDir.
func (c *Checker) Run(ctx context.Context, siteDir string) (*Result, error) {
	start := time.Now()
	runID := uuid.NewString()

	base, err := url.Parse(c.cfg.Site.BaseURL)
	if err != nil {
		return nil, ferrors.LinkCheckError("invalid base URL").
			WithCause(err).
			WithContext("base_url", c.cfg.Site.BaseURL).
			Build()
	}

	pages, err := findPages(siteDir)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, ferrors.LinkCheckError("no rendered pages found").
			WithContext("site_dir", siteDir).
			Build()
	}

	slog.Info("Link check started",
		slog.String("run_id", runID),
		logfields.Count(len(pages)))

	broken := map[string]*BrokenLink{}
	checked := 0
	external := map[string][]string{} // URL -> referencing pages

	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		links, err := ExtractFile(filepath.Join(siteDir, filepath.FromSlash(page)), base)
		if err != nil {
			slog.Warn("Failed to extract links", logfields.Path(page), logfields.Error(err))
			continue
		}

		for _, l := range links {
			if !ShouldCheck(l) {
				continue
			}
			if l.Internal {
				checked++
				if !targetExists(siteDir, page, l.URL) {
					addBroken(broken, l.URL, 0, "target not found in site output", true, page)
				}
				continue
			}
			if c.externalEnabled() {
				external[l.URL] = append(external[l.URL], page)
			}
		}
	}

	checked += len(external)
	if err := c.verifyExternal(ctx, external, broken); err != nil {
		return nil, err
	}

	result := &Result{
		RunID:    runID,
		Checked:  checked,
		Broken:   sortedBroken(broken),
		Duration: time.Since(start),
	}

	c.publishBroken(ctx, result)
	c.rec.ObserveLinkCheckDuration(result.Duration)
	c.rec.SetBrokenLinks(len(result.Broken))

	slog.Info("Link check finished",
		slog.String("run_id", runID),
		slog.Int("checked", result.Checked),
		slog.Int("broken", len(result.Broken)),
		logfields.DurationMS(float64(result.Duration.Milliseconds())))

	return result, nil
}

func (c *Checker) externalEnabled() bool {
	return c.cfg.LinkCheck != nil && c.cfg.LinkCheck.External
}

// verifyExternal checks each distinct external URL over a bounded
// worker set and folds failures into broken.
func (c *Checker) verifyExternal(ctx context.Context, refs map[string][]string, broken map[string]*BrokenLink) error {
	if len(refs) == 0 {
		return nil
	}

	urls := make([]string, 0, len(refs))
	for u := range refs {
		urls = append(urls, u)
	}
	sort.Strings(urls)

	concurrency := config.DefaultLinkCheckConc
	if c.cfg.LinkCheck != nil && c.cfg.LinkCheck.Concurrency > 0 {
		concurrency = c.cfg.LinkCheck.Concurrency
	}
	if concurrency > len(urls) {
		concurrency = len(urls)
	}

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, u := range urls {
		select {
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			defer func() { <-sem }()

			status, err := c.checkURL(ctx, u)
			if err != nil {
				mu.Lock()
				for _, page := range refs[u] {
					addBroken(broken, u, status, err.Error(), false, page)
				}
				mu.Unlock()
			}
		}(u)
	}

	wg.Wait()
	return ctx.Err()
}

// checkURL verifies one external URL, consulting the cache first.
func (c *Checker) checkURL(ctx context.Context, rawURL string) (int, error) {
	cached, err := c.cache.Get(ctx, rawURL)
	if err != nil {
		slog.Debug("Cache lookup error", logfields.URL(rawURL), logfields.Error(err))
	} else if cached != nil && c.cache.Fresh(cached) {
		if cached.Valid {
			return cached.Status, nil
		}
		return cached.Status, errors.New(cached.Error)
	}

	status, verifyErr := retry.DoValue(ctx, "link_check", c.policy, c.rec, permanentLinkFailure, func() (int, error) {
		return c.request(ctx, rawURL)
	})
	if ctx.Err() != nil {
		// Do not cache results from an interrupted run.
		return status, ctx.Err()
	}

	entry := &CacheEntry{
		URL:    rawURL,
		Status: status,
		Valid:  verifyErr == nil,
	}
	if verifyErr != nil {
		entry.Error = verifyErr.Error()
		entry.FailureCount = 1
		if cached != nil {
			entry.FailureCount = cached.FailureCount + 1
		}
	}
	if err := c.cache.Set(ctx, entry); err != nil {
		slog.Debug("Failed to update link cache", logfields.URL(rawURL), logfields.Error(err))
	}

	return status, verifyErr
}

// request issues a HEAD, falling back to GET for servers that reject
// HEAD outright.
func (c *Checker) request(ctx context.Context, rawURL string) (int, error) {
	status, err := c.do(ctx, http.MethodHead, rawURL)
	var se *statusError
	if errors.As(err, &se) && (se.Code == http.StatusMethodNotAllowed || se.Code == http.StatusNotImplemented) {
		return c.do(ctx, http.MethodGet, rawURL)
	}
	return status, err
}

func (c *Checker) do(ctx context.Context, method, rawURL string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	// Auth walls mean the URL exists but wants credentials.
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return resp.StatusCode, nil
	}
	if resp.StatusCode >= 400 {
		return resp.StatusCode, &statusError{Code: resp.StatusCode, Text: resp.Status}
	}
	return resp.StatusCode, nil
}

// statusError carries an HTTP failure status through the retry loop.
type statusError struct {
	Code int
	Text string
}

func (e *statusError) Error() string { return "HTTP " + e.Text }

// permanentLinkFailure reports status codes that will not change on
// retry. Transport errors, rate limits, timeouts, and server errors
// stay transient.
func permanentLinkFailure(err error) bool {
	var se *statusError
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return false
	}
	return se.Code >= 400 && se.Code < 500
}

// targetExists resolves an internal link against the output tree.
func targetExists(siteDir, pageRel, raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	p := u.Path
	if p == "" {
		// Fragment or query on the current page.
		return true
	}

	var target string
	if strings.HasPrefix(p, "/") {
		target = filepath.Join(siteDir, filepath.FromSlash(p))
	} else {
		target = filepath.Join(siteDir, filepath.Dir(filepath.FromSlash(pageRel)), filepath.FromSlash(p))
	}

	// Links escaping the output tree are broken by definition.
	rel, err := filepath.Rel(siteDir, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}

	info, err := os.Stat(target)
	if err != nil {
		return false
	}
	if info.IsDir() {
		_, err := os.Stat(filepath.Join(target, "index.html"))
		return err == nil
	}
	return true
}

// findPages walks siteDir for rendered HTML files, returning
// slash-separated relative paths.
func findPages(siteDir string) ([]string, error) {
	var pages []string
	err := filepath.WalkDir(siteDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(p), ".html") {
			rel, relErr := filepath.Rel(siteDir, p)
			if relErr != nil {
				return relErr
			}
			pages = append(pages, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to walk site output").
			WithContext("site_dir", siteDir).
			Build()
	}
	sort.Strings(pages)
	return pages, nil
}

func addBroken(broken map[string]*BrokenLink, rawURL string, status int, msg string, internal bool, page string) {
	b, ok := broken[rawURL]
	if !ok {
		b = &BrokenLink{
			URL:      rawURL,
			Status:   status,
			Error:    msg,
			Internal: internal,
		}
		broken[rawURL] = b
	}
	for _, p := range b.Pages {
		if p == page {
			return
		}
	}
	b.Pages = append(b.Pages, page)
}

func sortedBroken(broken map[string]*BrokenLink) []BrokenLink {
	out := make([]BrokenLink, 0, len(broken))
	for _, b := range broken {
		sort.Strings(b.Pages)
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URL < out[j].URL })
	return out
}

// publishBroken emits one event per broken link; failures only log.
func (c *Checker) publishBroken(ctx context.Context, result *Result) {
	for i := range result.Broken {
		event := &BrokenEvent{
			BrokenLink: result.Broken[i],
			Type:       "link_broken",
			RunID:      result.RunID,
		}
		if err := c.cache.Publish(ctx, event); err != nil {
			slog.Error("Failed to publish broken link event",
				logfields.URL(event.URL),
				logfields.Error(err))
			continue
		}
		slog.Warn("Broken link detected",
			logfields.URL(event.URL),
			logfields.Status(event.Status),
			slog.Int("pages", len(event.Pages)),
			slog.String("error", event.Error))
	}
}
