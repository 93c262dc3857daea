package linkcheck

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/zeebo/blake3"

	"git.home.luguber.info/inful/mdpage/internal/config"
)

const kvMaxBytes = 100 * 1024 * 1024

// NATSCache backs the link cache with a JetStream KV bucket and
// publishes broken link events to a subject.
type NATSCache struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	kv      jetstream.KeyValue
	subject string
	ttl     time.Duration
}

// NewNATSCache connects to NATS and ensures the KV bucket exists.
func NewNATSCache(cfg *config.NATSConfig) (*NATSCache, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, fmt.Errorf("nats is not configured")
	}

	conn, err := nats.Connect(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	ttl, err := time.ParseDuration(cfg.CacheTTL)
	if err != nil || ttl <= 0 {
		ttl = 24 * time.Hour
	}

	cache := &NATSCache{
		conn:    conn,
		js:      js,
		subject: cfg.Subject,
		ttl:     ttl,
	}
	if err := cache.initBucket(cfg.Bucket); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize KV bucket: %w", err)
	}

	slog.Info("Link cache connected",
		slog.String("url", cfg.URL),
		slog.String("bucket", cfg.Bucket),
		slog.String("subject", cfg.Subject))

	return cache, nil
}

// initBucket gets or creates the KV bucket for the link cache.
func (c *NATSCache) initBucket(bucket string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	kv, err := c.js.KeyValue(ctx, bucket)
	if err == nil {
		c.kv = kv
		return nil
	}

	kv, err = c.js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "Link verification cache for mdpage",
		MaxBytes:    kvMaxBytes,
		History:     1,
	})
	if err != nil {
		return fmt.Errorf("failed to create KV bucket: %w", err)
	}

	c.kv = kv
	slog.Info("Created link cache bucket", slog.String("bucket", bucket))
	return nil
}

// cacheKey hashes the URL into the KV key charset. Raw URLs contain
// characters KV keys reject.
func cacheKey(url string) string {
	sum := blake3.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

// Get retrieves the cached entry for a URL, nil when absent.
func (c *NATSCache) Get(ctx context.Context, url string) (*CacheEntry, error) {
	entry, err := c.kv.Get(ctx, cacheKey(url))
	if err != nil {
		if err == jetstream.ErrKeyNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cache entry: %w", err)
	}

	var cached CacheEntry
	if err := json.Unmarshal(entry.Value(), &cached); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache entry: %w", err)
	}
	return &cached, nil
}

// Set stores a verification result.
func (c *NATSCache) Set(ctx context.Context, entry *CacheEntry) error {
	entry.LastChecked = time.Now()

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	if _, err := c.kv.Put(ctx, cacheKey(entry.URL), data); err != nil {
		return fmt.Errorf("failed to put cache entry: %w", err)
	}
	return nil
}

// Fresh reports whether an entry is still within its TTL. Failed
// results expire at a quarter of the TTL so broken links get
// rechecked sooner.
func (c *NATSCache) Fresh(entry *CacheEntry) bool {
	if entry == nil {
		return false
	}
	ttl := c.ttl
	if !entry.Valid {
		ttl = c.ttl / 4
	}
	return time.Since(entry.LastChecked) < ttl
}

// Publish emits a broken link event on the configured subject.
func (c *NATSCache) Publish(ctx context.Context, event *BrokenEvent) error {
	event.Timestamp = time.Now()
	if err := c.PublishEvent(ctx, event); err != nil {
		return err
	}

	slog.Debug("Published broken link event",
		slog.String("url", event.URL),
		slog.Int("pages", len(event.Pages)))
	return nil
}

// PublishEvent emits any event payload on the configured subject.
func (c *NATSCache) PublishEvent(ctx context.Context, payload any) error {
	if c.subject == "" {
		return nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := c.js.Publish(ctx, c.subject, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Close closes the NATS connection.
func (c *NATSCache) Close() error {
	if c.conn != nil {
		c.conn.Close()
	}
	return nil
}
