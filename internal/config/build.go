package config

// BuildConfig holds build performance tuning knobs and retry options.
type BuildConfig struct {
	Concurrency       int              `yaml:"concurrency,omitempty"`
	MaxRetries        int              `yaml:"max_retries,omitempty"`
	RetryBackoff      RetryBackoffMode `yaml:"retry_backoff,omitempty"`
	RetryInitialDelay string           `yaml:"retry_initial_delay,omitempty"`
	RetryMaxDelay     string           `yaml:"retry_max_delay,omitempty"`
	SkipIfUnchanged   bool             `yaml:"skip_if_unchanged,omitempty"`
}
