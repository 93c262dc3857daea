package daemon

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestRebuildQueueOfferTake(t *testing.T) {
	q := newRebuildQueue()

	if _, ok := q.take(); ok {
		t.Fatal("empty queue returned a request")
	}

	q.offer(rebuildRequest{Trigger: TriggerWatch})
	req, ok := q.take()
	if !ok {
		t.Fatal("queued request not returned")
	}
	if req.Trigger != TriggerWatch {
		t.Fatalf("trigger = %q, want %q", req.Trigger, TriggerWatch)
	}
	if _, ok := q.take(); ok {
		t.Fatal("take did not empty the queue")
	}
}

func TestRebuildQueueCoalesces(t *testing.T) {
	q := newRebuildQueue()

	q.offer(rebuildRequest{Trigger: TriggerWatch})
	q.offer(rebuildRequest{Trigger: TriggerWatch})
	q.offer(rebuildRequest{Trigger: TriggerWatch})

	if _, ok := q.take(); !ok {
		t.Fatal("expected one queued request")
	}
	if _, ok := q.take(); ok {
		t.Fatal("burst of offers queued more than one request")
	}
}

func TestRebuildQueueManualIDWins(t *testing.T) {
	q := newRebuildQueue()

	q.offer(rebuildRequest{Trigger: TriggerWatch})
	granted := q.offer(rebuildRequest{Trigger: TriggerManual, BuildID: "b-manual"})
	if granted.BuildID != "b-manual" {
		t.Fatalf("granted id = %q, want b-manual", granted.BuildID)
	}

	req, ok := q.take()
	if !ok {
		t.Fatal("expected a queued request")
	}
	if req.BuildID != "b-manual" || req.Trigger != TriggerManual {
		t.Fatalf("queued request = %+v, want the manual one", req)
	}
}

func TestRebuildQueueFirstIDKept(t *testing.T) {
	q := newRebuildQueue()

	q.offer(rebuildRequest{Trigger: TriggerManual, BuildID: "b-first"})
	granted := q.offer(rebuildRequest{Trigger: TriggerManual, BuildID: "b-second"})

	// Both callers are satisfied by the one coming build; they share
	// its id.
	if granted.BuildID != "b-first" {
		t.Fatalf("granted id = %q, want b-first", granted.BuildID)
	}
}

func TestRebuildQueueWakes(t *testing.T) {
	q := newRebuildQueue()
	q.offer(rebuildRequest{Trigger: TriggerWatch})

	select {
	case <-q.wake:
	case <-time.After(time.Second):
		t.Fatal("offer did not signal the wake channel")
	}
}

func TestDebouncedCoalescesBurst(t *testing.T) {
	var fires atomic.Int32
	trigger := debounced(30*time.Millisecond, func() { fires.Add(1) })

	for i := 0; i < 10; i++ {
		trigger()
		time.Sleep(2 * time.Millisecond)
	}

	deadline := time.Now().Add(2 * time.Second)
	for fires.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := fires.Load(); got != 1 {
		t.Fatalf("fires = %d, want 1", got)
	}

	// A later call fires again.
	trigger()
	deadline = time.Now().Add(2 * time.Second)
	for fires.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := fires.Load(); got != 2 {
		t.Fatalf("fires after second burst = %d, want 2", got)
	}
}
