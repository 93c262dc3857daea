package linkcheck

import (
	"context"
	"time"
)

// CacheEntry is a remembered verification result for one URL.
type CacheEntry struct {
	URL          string    `json:"url"`
	Status       int       `json:"status"`
	Valid        bool      `json:"valid"`
	Error        string    `json:"error,omitempty"`
	LastChecked  time.Time `json:"last_checked"`
	FailureCount int       `json:"failure_count,omitempty"`
}

// Cache fronts external link verification and carries result
// publishing. Without NATS configured the Noop implementation is
// wired in and every lookup misses.
type Cache interface {
	// Get returns the cached entry for a URL, or nil when absent.
	Get(ctx context.Context, url string) (*CacheEntry, error)
	// Set stores a verification result.
	Set(ctx context.Context, entry *CacheEntry) error
	// Fresh reports whether an entry is still within its TTL.
	Fresh(entry *CacheEntry) bool
	// Publish emits a broken link event for dashboards.
	Publish(ctx context.Context, event *BrokenEvent) error
	// PublishEvent emits an arbitrary event payload on the same
	// subject. The daemon mirrors its build lifecycle through it.
	PublishEvent(ctx context.Context, payload any) error
	Close() error
}

// NoopCache misses every lookup and drops every publish.
type NoopCache struct{}

func (NoopCache) Get(context.Context, string) (*CacheEntry, error) { return nil, nil }
func (NoopCache) Set(context.Context, *CacheEntry) error           { return nil }
func (NoopCache) Fresh(*CacheEntry) bool                           { return false }
func (NoopCache) Publish(context.Context, *BrokenEvent) error      { return nil }
func (NoopCache) PublishEvent(context.Context, any) error          { return nil }
func (NoopCache) Close() error                                     { return nil }
