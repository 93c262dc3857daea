// Package config loads, normalizes, and validates the mdpage.yaml
// configuration file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level mdpage configuration (version 1.x).
type Config struct {
	Version   string           `yaml:"version"`
	Site      SiteConfig       `yaml:"site"`
	Source    SourceConfig     `yaml:"source"`
	Output    OutputConfig     `yaml:"output"`
	Build     BuildConfig      `yaml:"build,omitempty"`
	Serve     *ServeConfig     `yaml:"serve,omitempty"`
	LinkCheck *LinkCheckConfig `yaml:"linkcheck,omitempty"`
	Export    ExportConfig     `yaml:"export,omitempty"`
	Search    SearchConfig     `yaml:"search,omitempty"`
	Logging   LoggingConfig    `yaml:"logging,omitempty"`
}

// Load reads, expands, normalizes, defaults, and validates a config file.
func Load(configPath string) (*Config, error) {
	// Best effort; a missing .env is not an error.
	loadEnvFiles()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Environment references in the YAML (${VAR}) expand before parse.
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Version != "" && !supportedVersion(cfg.Version) {
		return nil, fmt.Errorf("unsupported configuration version: %s (expected 1.x)", cfg.Version)
	}

	res := NormalizeConfig(&cfg)
	for _, w := range res.Warnings {
		fmt.Fprintf(os.Stderr, "config normalization: %s\n", w)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func supportedVersion(v string) bool {
	return v == "1" || v == "1.0" || (len(v) >= 2 && v[:2] == "1.")
}

// Init writes a commented example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

const exampleConfig = `version: "1.0"

site:
  title: My Articles
  description: Rendered markdown articles
  base_url: https://docs.example.com

source:
  dir: ./content
  # Or render straight from a repository:
  # repo: https://github.com/example/articles.git
  # branch: main
  exclude:
    - drafts/*

output:
  directory: ./public
  clean: true

build:
  concurrency: 4
  max_retries: 2
  retry_backoff: linear
  retry_initial_delay: 1s
  retry_max_delay: 30s
  skip_if_unchanged: true

serve:
  http:
    site_port: 8080
    admin_port: 8082
  watch:
    debounce_ms: 300
  storage:
    event_db: ./mdpage-events.db
  # Periodic link verification (cron):
  # schedule: "0 */4 * * *"
  # nats:
  #   url: nats://localhost:4222
  #   bucket: mdpage-linkcheck
  #   subject: mdpage.builds
  #   cache_ttl: 24h
  metrics:
    enabled: true
    path: /metrics

linkcheck:
  enabled: true
  external: false
  timeout: 10s
  concurrency: 8

export:
  format: tar.xz

search:
  max_results: 20

logging:
  level: info
  format: text
`
