package eventstore

import (
	"context"
	"time"
)

// Store persists and retrieves build events.
type Store interface {
	// Append adds a new event to the store.
	Append(ctx context.Context, buildID, eventType string, payload []byte, metadata map[string]string) error

	// GetByBuildID retrieves all events for one build, oldest first.
	GetByBuildID(ctx context.Context, buildID string) ([]Event, error)

	// GetRange retrieves events within a time range, oldest first.
	GetRange(ctx context.Context, start, end time.Time) ([]Event, error)

	// Close releases the underlying storage.
	Close() error
}

// Record appends a constructed event, carrying its fields into the
// store columns.
func Record(ctx context.Context, store Store, ev Event) error {
	return store.Append(ctx, ev.BuildID(), ev.Type(), ev.Payload(), ev.Metadata())
}
