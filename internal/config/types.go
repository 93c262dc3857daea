package config

// SiteConfig describes the generated site.
type SiteConfig struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
	BaseURL     string `yaml:"base_url,omitempty"`
}

// SourceConfig locates the article tree: a local directory or a git
// repository to clone into an ephemeral workspace.
type SourceConfig struct {
	Dir     string   `yaml:"dir,omitempty"`
	Repo    string   `yaml:"repo,omitempty"`
	Branch  string   `yaml:"branch,omitempty"`
	Include []string `yaml:"include,omitempty"`
	Exclude []string `yaml:"exclude,omitempty"`
}

// OutputConfig controls where rendered pages land.
type OutputConfig struct {
	Directory string `yaml:"directory"`
	Clean     bool   `yaml:"clean"`
}

// ServeConfig holds the serve-mode surface: HTTP ports, watcher,
// event storage, optional NATS, schedule, metrics.
type ServeConfig struct {
	HTTP     HTTPConfig    `yaml:"http"`
	Watch    WatchConfig   `yaml:"watch"`
	Storage  StorageConfig `yaml:"storage"`
	NATS     *NATSConfig   `yaml:"nats,omitempty"`
	Schedule string        `yaml:"schedule,omitempty"`
	Metrics  MetricsConfig `yaml:"metrics,omitempty"`
}

// HTTPConfig carries the two serve-mode listener ports.
type HTTPConfig struct {
	SitePort  int `yaml:"site_port"`
	AdminPort int `yaml:"admin_port"`
}

// WatchConfig tunes the filesystem watcher.
type WatchConfig struct {
	DebounceMS int `yaml:"debounce_ms"`
}

// StorageConfig locates serve-mode persistence.
type StorageConfig struct {
	EventDB string `yaml:"event_db"`
}

// NATSConfig enables the JetStream link-check cache and build event
// publishing. Absent NATS config degrades both to no-ops.
type NATSConfig struct {
	URL      string `yaml:"url"`
	Bucket   string `yaml:"bucket,omitempty"`
	Subject  string `yaml:"subject,omitempty"`
	CacheTTL string `yaml:"cache_ttl,omitempty"`
}

// MetricsConfig toggles the Prometheus endpoint on the admin server.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
}

// LinkCheckConfig tunes link verification.
type LinkCheckConfig struct {
	Enabled     bool   `yaml:"enabled"`
	External    bool   `yaml:"external"`
	Timeout     string `yaml:"timeout,omitempty"`
	Concurrency int    `yaml:"concurrency,omitempty"`
}

// SearchConfig tunes the search command.
type SearchConfig struct {
	MaxResults int `yaml:"max_results,omitempty"`
}

// LoggingConfig selects log level and output format.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level,omitempty"`
	Format LogFormat `yaml:"format,omitempty"`
}
