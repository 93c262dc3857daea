package httpserver

import (
	"bufio"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"git.home.luguber.info/inful/mdpage/internal/metrics"
)

// LiveReloadHub manages SSE clients for signature-change broadcasts.
// The daemon broadcasts the build signature after every completed build;
// connected pages reload when the signature they saw first changes.
type LiveReloadHub struct {
	mu       sync.RWMutex
	nextID   int
	clients  map[int]*lrClient
	recorder metrics.Recorder
	closed   bool
	lastHash string
}

type lrClient struct {
	id   int
	ch   chan string
	done chan struct{}
}

// NewLiveReloadHub creates a hub reporting its client gauge through the
// given recorder. A nil recorder disables metrics.
func NewLiveReloadHub(rec metrics.Recorder) *LiveReloadHub {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &LiveReloadHub{clients: map[int]*lrClient{}, recorder: rec}
}

// ServeHTTP implements the SSE endpoint at /livereload.
func (h *LiveReloadHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		http.Error(w, "livereload shutting down", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}

	client := &lrClient{ch: make(chan string, 8), done: make(chan struct{})}
	h.mu.Lock()
	client.id = h.nextID
	h.nextID++
	h.clients[client.id] = client
	current := h.lastHash
	count := len(h.clients)
	h.mu.Unlock()
	h.recorder.SetLiveReloadClients(count)

	// Initial comment plus the last known signature so a page reloaded
	// mid-build syncs up immediately.
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(": connected\n\n"); err != nil {
		slog.Debug("livereload write", "error", err)
		return
	}
	if current != "" {
		if _, err := bw.WriteString("data: {\"hash\":\"" + current + "\"}\n\n"); err != nil {
			slog.Debug("livereload write", "error", err)
			return
		}
	}
	if err := bw.Flush(); err == nil {
		flusher.Flush()
	}

	hb := time.NewTicker(30 * time.Second)
	defer hb.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			h.removeClient(client.id)
			return
		case <-client.done:
			h.removeClient(client.id)
			return
		case <-hb.C:
			if _, err := bw.WriteString(": ping\n\n"); err == nil {
				_ = bw.Flush()
				flusher.Flush()
			} else {
				slog.Debug("livereload ping write", "error", err)
			}
		case hash := <-client.ch:
			if _, err := bw.WriteString("data: {\"hash\":\"" + hash + "\"}\n\n"); err == nil {
				_ = bw.Flush()
				flusher.Flush()
			} else {
				slog.Debug("livereload broadcast write", "error", err)
			}
		}
	}
}

func (h *LiveReloadHub) removeClient(id int) {
	h.mu.Lock()
	c, ok := h.clients[id]
	if ok {
		delete(h.clients, id)
	}
	count := len(h.clients)
	h.mu.Unlock()
	if ok {
		close(c.done)
		h.recorder.SetLiveReloadClients(count)
	}
}

// ClientCount returns the number of connected clients.
func (h *LiveReloadHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends a new signature to all clients. Unchanged or empty
// signatures are ignored; clients whose channels are full are dropped.
func (h *LiveReloadHub) Broadcast(hash string) {
	h.mu.Lock()
	if h.closed || hash == "" || hash == h.lastHash {
		h.mu.Unlock()
		return
	}
	h.lastHash = hash
	snapshot := make([]*lrClient, 0, len(h.clients))
	for _, c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.mu.Unlock()

	dropped := 0
	for _, c := range snapshot {
		select {
		case c.ch <- hash:
		default:
			dropped++
			h.removeClient(c.id)
		}
	}
	slog.Debug("livereload broadcast", "hash", hash, "clients", len(snapshot), "dropped", dropped)
}

// Shutdown closes all clients and prevents future broadcasts.
func (h *LiveReloadHub) Shutdown() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := h.clients
	h.clients = map[int]*lrClient{}
	h.mu.Unlock()
	for _, c := range clients {
		close(c.done)
	}
	h.recorder.SetLiveReloadClients(0)
}

// liveReloadScript is the client snippet served at /livereload.js. It
// connects back to the same origin, so no port wiring is needed.
const liveReloadScript = `(() => {
  if (window.__MDPAGE_LR__) return;
  window.__MDPAGE_LR__=true;
  function connect(){
    const es = new EventSource('/livereload');
    let first=true; let current=null;
    es.onmessage = (e)=>{ try { const p=JSON.parse(e.data); if(first){ current=p.hash; first=false; return;} if(p.hash && p.hash!==current){ console.log('[mdpage] change detected, reloading'); location.reload(); } } catch(_){} };
    es.onerror = ()=>{ console.warn('[mdpage] livereload error - retrying'); es.close(); setTimeout(connect,2000); };
  }
  connect();
})();`

func serveLiveReloadScript(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	if _, err := w.Write([]byte(liveReloadScript)); err != nil {
		slog.Error("failed to write livereload script", "error", err)
	}
}

// liveReloadScriptTag is injected into HTML pages before </body>.
const liveReloadScriptTag = `<script async src="/livereload.js"></script>`

// injectLiveReload wraps a handler to inject the live reload client
// script into HTML responses.
func injectLiveReload(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Only HTML pages get the script, not assets or API responses.
		path := r.URL.Path
		isHTMLPage := path == "/" || path == "" || strings.HasSuffix(path, "/") || strings.HasSuffix(path, ".html")
		if !isHTMLPage {
			next.ServeHTTP(w, r)
			return
		}

		injector := newLiveReloadInjector(w)
		next.ServeHTTP(injector, r)
		injector.finalize()
	})
}

// liveReloadInjector buffers an HTML response so the script tag can be
// inserted before the closing </body> tag. Responses over the size limit
// fall back to passthrough rather than stalling large transfers.
type liveReloadInjector struct {
	http.ResponseWriter
	statusCode    int
	buffer        []byte
	headerWritten bool
	passthrough   bool
	maxSize       int
}

func newLiveReloadInjector(w http.ResponseWriter) *liveReloadInjector {
	return &liveReloadInjector{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
		maxSize:        512 * 1024,
	}
}

func (l *liveReloadInjector) WriteHeader(code int) {
	l.statusCode = code
	if l.passthrough {
		l.ResponseWriter.WriteHeader(code)
		l.headerWritten = true
	}
}

func (l *liveReloadInjector) Write(data []byte) (int, error) {
	// Sniff Content-Type on the first write; only HTML is buffered.
	if !l.headerWritten && !l.passthrough && l.buffer == nil {
		contentType := l.ResponseWriter.Header().Get("Content-Type")
		isHTML := contentType == "" || strings.Contains(contentType, "text/html")
		if !isHTML {
			l.passthrough = true
			l.ResponseWriter.WriteHeader(l.statusCode)
			l.headerWritten = true
			return l.ResponseWriter.Write(data)
		}
		l.buffer = make([]byte, 0, 64*1024)
	}

	if l.passthrough {
		return l.ResponseWriter.Write(data)
	}

	if len(l.buffer)+len(data) > l.maxSize {
		l.passthrough = true
		l.ResponseWriter.Header().Del("Content-Length")
		l.ResponseWriter.WriteHeader(l.statusCode)
		l.headerWritten = true
		if len(l.buffer) > 0 {
			if _, err := l.ResponseWriter.Write(l.buffer); err != nil {
				return 0, err
			}
		}
		return l.ResponseWriter.Write(data)
	}

	l.buffer = append(l.buffer, data...)
	return len(data), nil
}

// finalize must be called after the handler completes to inject the script.
func (l *liveReloadInjector) finalize() {
	if l.passthrough || len(l.buffer) == 0 {
		if !l.headerWritten {
			l.ResponseWriter.WriteHeader(l.statusCode)
		}
		return
	}

	page := string(l.buffer)
	modified := strings.Replace(page, "</body>", liveReloadScriptTag+"</body>", 1)

	l.ResponseWriter.Header().Del("Content-Length")
	l.ResponseWriter.WriteHeader(l.statusCode)
	_, _ = l.ResponseWriter.Write([]byte(modified))
}
