package config

// Default values applied after normalization. Serve defaults only apply
// when a serve block is present; a nil block means serve mode was not
// configured and `mdpage serve` falls back to these at runtime.
const (
	DefaultSourceDir     = "./content"
	DefaultOutputDir     = "./public"
	DefaultBranch        = "main"
	DefaultSitePort      = 8080
	DefaultAdminPort     = 8082
	DefaultDebounceMS    = 300
	DefaultEventDB       = "./mdpage-events.db"
	DefaultMetricsPath   = "/metrics"
	DefaultNATSBucket    = "mdpage-linkcheck"
	DefaultNATSSubject   = "mdpage.builds"
	DefaultNATSCacheTTL  = "24h"
	DefaultLinkTimeout   = "10s"
	DefaultSearchResults = 20
	DefaultConcurrency   = 4
	DefaultMaxRetries    = 2
	DefaultRetryDelay    = "1s"
	DefaultRetryMaxDelay = "30s"
	DefaultLinkCheckConc = 8
)

// Default returns a fully defaulted configuration for running without
// a config file.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// DefaultServe returns a defaulted serve block for configs that omit
// one.
func DefaultServe() *ServeConfig {
	s := &ServeConfig{}
	applyServeDefaults(s)
	return s
}

func applyDefaults(cfg *Config) {
	if cfg.Site.Title == "" {
		cfg.Site.Title = "Articles"
	}

	if cfg.Source.Dir == "" && cfg.Source.Repo == "" {
		cfg.Source.Dir = DefaultSourceDir
	}
	if cfg.Source.Repo != "" && cfg.Source.Branch == "" {
		cfg.Source.Branch = DefaultBranch
	}

	if cfg.Output.Directory == "" {
		cfg.Output.Directory = DefaultOutputDir
	}

	applyBuildDefaults(&cfg.Build)
	applyServeDefaults(cfg.Serve)
	applyLinkCheckDefaults(cfg.LinkCheck)

	if cfg.Export.Format == "" {
		cfg.Export.Format = ArchiveTarXz
	}
	if cfg.Search.MaxResults <= 0 {
		cfg.Search.MaxResults = DefaultSearchResults
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = LogLevelInfo
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = LogFormatText
	}
}

func applyBuildDefaults(b *BuildConfig) {
	if b.Concurrency <= 0 {
		b.Concurrency = DefaultConcurrency
	}
	if b.MaxRetries == 0 {
		b.MaxRetries = DefaultMaxRetries
	}
	if b.RetryBackoff == "" {
		b.RetryBackoff = RetryBackoffLinear
	}
	if b.RetryInitialDelay == "" {
		b.RetryInitialDelay = DefaultRetryDelay
	}
	if b.RetryMaxDelay == "" {
		b.RetryMaxDelay = DefaultRetryMaxDelay
	}
}

func applyServeDefaults(s *ServeConfig) {
	if s == nil {
		return
	}

	if s.HTTP.SitePort == 0 {
		s.HTTP.SitePort = DefaultSitePort
	}
	if s.HTTP.AdminPort == 0 {
		s.HTTP.AdminPort = DefaultAdminPort
	}
	if s.Watch.DebounceMS == 0 {
		s.Watch.DebounceMS = DefaultDebounceMS
	}
	if s.Storage.EventDB == "" {
		s.Storage.EventDB = DefaultEventDB
	}
	if s.Metrics.Enabled && s.Metrics.Path == "" {
		s.Metrics.Path = DefaultMetricsPath
	}

	if s.NATS != nil {
		if s.NATS.Bucket == "" {
			s.NATS.Bucket = DefaultNATSBucket
		}
		if s.NATS.Subject == "" {
			s.NATS.Subject = DefaultNATSSubject
		}
		if s.NATS.CacheTTL == "" {
			s.NATS.CacheTTL = DefaultNATSCacheTTL
		}
	}
}

func applyLinkCheckDefaults(lc *LinkCheckConfig) {
	if lc == nil {
		return
	}

	if lc.Timeout == "" {
		lc.Timeout = DefaultLinkTimeout
	}
	if lc.Concurrency <= 0 {
		lc.Concurrency = DefaultLinkCheckConc
	}
}
