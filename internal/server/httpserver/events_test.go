package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func waitForClients(t *testing.T, hub *EventsHub, want int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if hub.ClientCount() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected %d clients, have %d", want, hub.ClientCount())
}

func dialEvents(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return conn
}

func TestEventsHubBroadcast(t *testing.T) {
	hub := NewEventsHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	conn := dialEvents(t, srv)
	defer conn.Close()
	waitForClients(t, hub, 1)

	hub.Broadcast(BuildEvent{Type: "build_completed", BuildID: "b1", Outcome: "success"})

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read message: %v", err)
	}
	var ev BuildEvent
	if err := json.Unmarshal(msg, &ev); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if ev.Type != "build_completed" || ev.BuildID != "b1" || ev.Outcome != "success" {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.Timestamp == "" {
		t.Fatal("expected timestamp to be filled in")
	}
}

func TestEventsHubMultipleSubscribers(t *testing.T) {
	hub := NewEventsHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	first := dialEvents(t, srv)
	defer first.Close()
	second := dialEvents(t, srv)
	defer second.Close()
	waitForClients(t, hub, 2)

	hub.Broadcast(BuildEvent{Type: "build_started", BuildID: "b2"})

	for _, conn := range []*websocket.Conn{first, second} {
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read message: %v", err)
		}
		var ev BuildEvent
		if err := json.Unmarshal(msg, &ev); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		if ev.BuildID != "b2" {
			t.Fatalf("unexpected event %+v", ev)
		}
	}
}

// The admin server wraps its mux in logging middleware; the upgrade
// still has to reach the underlying connection.
func TestEventsThroughAdminServer(t *testing.T) {
	hub := NewEventsHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	cfg := testServeConfig(t.TempDir())
	s := New(cfg, stubRuntime{}, Options{Events: hub})
	base := startAdminServer(t, s)

	wsURL := "ws" + strings.TrimPrefix(base, "http") + "/events"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial through middleware: %v", err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	defer conn.Close()
	waitForClients(t, hub, 1)

	hub.Broadcast(BuildEvent{Type: "build_started", BuildID: "b9"})

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read message: %v", err)
	}
	var ev BuildEvent
	if err := json.Unmarshal(msg, &ev); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if ev.BuildID != "b9" {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestEventsHubShutdownDisconnects(t *testing.T) {
	hub := NewEventsHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	conn := dialEvents(t, srv)
	defer conn.Close()
	waitForClients(t, hub, 1)

	cancel()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	if hub.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after shutdown, got %d", hub.ClientCount())
	}
}
