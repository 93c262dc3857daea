package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"git.home.luguber.info/inful/mdpage/internal/config"
	"git.home.luguber.info/inful/mdpage/internal/server/responses"
)

func TestServerStartStop(t *testing.T) {
	cfg := testServeConfig(t.TempDir())
	s := New(cfg, stubRuntime{}, Options{})

	ctx := context.Background()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	stopCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.Stop(stopCtx); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestServerStartRequiresServeConfig(t *testing.T) {
	s := New(&config.Config{}, stubRuntime{}, Options{})
	if err := s.Start(context.Background()); err == nil {
		t.Fatal("expected error without serve config")
	}
}

func TestServerStartPortConflict(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	taken := ln.Addr().(*net.TCPAddr).Port

	cfg := testServeConfig(t.TempDir())
	cfg.Serve.HTTP.SitePort = taken
	s := New(cfg, stubRuntime{}, Options{})

	err = s.Start(context.Background())
	if err == nil {
		t.Fatal("expected bind conflict error")
	}
	if !strings.Contains(err.Error(), "http startup failed") {
		t.Fatalf("unexpected error %v", err)
	}
	if !strings.Contains(err.Error(), fmt.Sprintf("site port %d", taken)) {
		t.Fatalf("expected conflicting port in error, got %v", err)
	}
}

// startAdminServer boots the admin server on an ephemeral port and
// returns its base URL.
func startAdminServer(t *testing.T, s *Server) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	if err := s.startAdminServerWithListener(context.Background(), ln); err != nil {
		t.Fatalf("start admin server: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.adminServer.Shutdown(ctx)
	})
	return "http://" + ln.Addr().String()
}

func TestAdminEndpoints(t *testing.T) {
	cfg := testServeConfig(t.TempDir())
	cfg.Serve.Metrics = config.MetricsConfig{Enabled: true, Path: "/metrics"}
	metricsHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})
	s := New(cfg, stubRuntime{}, Options{MetricsHandler: metricsHandler})
	base := startAdminServer(t, s)

	code, body, _ := getBody(t, base+"/healthz")
	if code != http.StatusOK {
		t.Fatalf("healthz: expected 200, got %d", code)
	}
	var health responses.HealthResponse
	if err := json.Unmarshal([]byte(body), &health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health.DaemonStatus != "running" {
		t.Fatalf("unexpected daemon status %q", health.DaemonStatus)
	}

	code, body, _ = getBody(t, base+"/status")
	if code != http.StatusOK {
		t.Fatalf("status: expected 200, got %d", code)
	}
	var status responses.StatusResponse
	if err := json.Unmarshal([]byte(body), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.Status != "running" {
		t.Fatalf("unexpected status %q", status.Status)
	}

	code, body, _ = getBody(t, base+"/metrics")
	if code != http.StatusOK || body != "# metrics" {
		t.Fatalf("metrics: got %d %q", code, body)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Post(base+"/api/build/trigger", "application/json", nil)
	if err != nil {
		t.Fatalf("trigger: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("trigger: expected 200, got %d", resp.StatusCode)
	}
	var trigger responses.TriggerResponse
	if err := json.NewDecoder(resp.Body).Decode(&trigger); err != nil {
		t.Fatalf("decode trigger: %v", err)
	}
	if trigger.BuildID != "b1" {
		t.Fatalf("unexpected trigger response %+v", trigger)
	}
}

func TestAdminMetricsDisabled(t *testing.T) {
	cfg := testServeConfig(t.TempDir())
	metricsHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})
	s := New(cfg, stubRuntime{}, Options{MetricsHandler: metricsHandler})
	base := startAdminServer(t, s)

	code, _, _ := getBody(t, base+"/metrics")
	if code != http.StatusNotFound {
		t.Fatalf("expected 404 with metrics disabled, got %d", code)
	}
}
