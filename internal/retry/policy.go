// Package retry provides backoff policies and a context-aware executor
// for transient failures in git, network, and publish operations.
package retry

import (
	"fmt"
	"time"

	"git.home.luguber.info/inful/mdpage/internal/config"
)

// Policy encapsulates retry and backoff settings. It is immutable
// after construction.
type Policy struct {
	Mode       config.RetryBackoffMode
	Initial    time.Duration
	Max        time.Duration
	MaxRetries int
}

// DefaultPolicy returns the fallback policy: linear backoff, 1s
// initial, 30s cap, 2 retries.
func DefaultPolicy() Policy {
	return Policy{
		Mode:       config.RetryBackoffLinear,
		Initial:    time.Second,
		Max:        30 * time.Second,
		MaxRetries: 2,
	}
}

// NewPolicy builds a policy from raw settings; zero or invalid values
// fall back to the defaults.
func NewPolicy(mode config.RetryBackoffMode, initial, maxDelay time.Duration, maxRetries int) Policy {
	p := DefaultPolicy()
	if maxRetries >= 0 {
		p.MaxRetries = maxRetries
	}
	if initial > 0 {
		p.Initial = initial
	}
	if maxDelay > 0 {
		p.Max = maxDelay
	}
	switch mode {
	case config.RetryBackoffFixed, config.RetryBackoffLinear, config.RetryBackoffExponential:
		p.Mode = mode
	}
	if p.Initial > p.Max {
		p.Initial = p.Max
	}
	return p
}

// FromBuildConfig derives a policy from the build section. Duration
// strings are validated earlier by config, so parse failures here just
// mean defaults.
func FromBuildConfig(cfg *config.BuildConfig) Policy {
	if cfg == nil {
		return DefaultPolicy()
	}
	initial, _ := time.ParseDuration(cfg.RetryInitialDelay)
	maxDelay, _ := time.ParseDuration(cfg.RetryMaxDelay)
	return NewPolicy(cfg.RetryBackoff, initial, maxDelay, cfg.MaxRetries)
}

// Delay returns the backoff delay for the given retry attempt,
// 1-based: the first retry is attempt 1.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	switch p.Mode {
	case config.RetryBackoffFixed:
		return p.Initial
	case config.RetryBackoffExponential:
		d := p.Initial * (1 << (attempt - 1))
		if d > p.Max || d <= 0 {
			return p.Max
		}
		return d
	default: // linear
		d := time.Duration(attempt) * p.Initial
		if d > p.Max {
			return p.Max
		}
		return d
	}
}

// Validate ensures the policy can be applied.
func (p Policy) Validate() error {
	if p.Initial <= 0 {
		return fmt.Errorf("initial delay must be positive, got %s", p.Initial)
	}
	if p.Max <= 0 {
		return fmt.Errorf("max delay must be positive, got %s", p.Max)
	}
	if p.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative, got %d", p.MaxRetries)
	}
	return nil
}
