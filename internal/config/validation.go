package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// validateConfig validates the fully normalized and defaulted config.
func validateConfig(cfg *Config) error {
	v := &configValidator{cfg: cfg}
	return v.validate()
}

// configValidator coordinates validation across configuration domains.
type configValidator struct {
	cfg *Config
}

func (v *configValidator) validate() error {
	if err := v.validateSource(); err != nil {
		return err
	}
	if err := v.validateBuild(); err != nil {
		return err
	}
	if err := v.validateServe(); err != nil {
		return err
	}
	return v.validateLinkCheck()
}

func (v *configValidator) validateSource() error {
	src := v.cfg.Source
	if src.Dir != "" && src.Repo != "" {
		return errors.New("source.dir and source.repo are mutually exclusive")
	}
	if src.Dir == "" && src.Repo == "" {
		return errors.New("either source.dir or source.repo must be configured")
	}
	return nil
}

func (v *configValidator) validateBuild() error {
	b := v.cfg.Build

	switch b.RetryBackoff {
	case RetryBackoffFixed, RetryBackoffLinear, RetryBackoffExponential:
	default:
		return fmt.Errorf("invalid retry_backoff: %s (allowed: fixed|linear|exponential)", b.RetryBackoff)
	}

	if b.MaxRetries > 10 {
		return fmt.Errorf("max_retries too large: %d (maximum 10)", b.MaxRetries)
	}

	initialDelay, err := time.ParseDuration(b.RetryInitialDelay)
	if err != nil {
		return fmt.Errorf("invalid retry_initial_delay: %s: %w", b.RetryInitialDelay, err)
	}
	maxDelay, err := time.ParseDuration(b.RetryMaxDelay)
	if err != nil {
		return fmt.Errorf("invalid retry_max_delay: %s: %w", b.RetryMaxDelay, err)
	}
	if initialDelay > maxDelay {
		return fmt.Errorf("retry_initial_delay (%s) exceeds retry_max_delay (%s)", b.RetryInitialDelay, b.RetryMaxDelay)
	}

	return nil
}

func (v *configValidator) validateServe() error {
	s := v.cfg.Serve
	if s == nil {
		return nil
	}

	if err := validatePort("serve.http.site_port", s.HTTP.SitePort); err != nil {
		return err
	}
	if err := validatePort("serve.http.admin_port", s.HTTP.AdminPort); err != nil {
		return err
	}
	if s.HTTP.SitePort == s.HTTP.AdminPort {
		return fmt.Errorf("serve.http.site_port and admin_port must differ (both %d)", s.HTTP.SitePort)
	}

	if s.Schedule != "" {
		if err := validateSchedule(s.Schedule); err != nil {
			return fmt.Errorf("invalid serve.schedule: %w", err)
		}
	}

	if s.NATS != nil {
		if s.NATS.URL == "" {
			return errors.New("serve.nats.url is required when nats is configured")
		}
		if _, err := time.ParseDuration(s.NATS.CacheTTL); err != nil {
			return fmt.Errorf("invalid serve.nats.cache_ttl: %s: %w", s.NATS.CacheTTL, err)
		}
	}

	return nil
}

func (v *configValidator) validateLinkCheck() error {
	lc := v.cfg.LinkCheck
	if lc == nil {
		return nil
	}

	if _, err := time.ParseDuration(lc.Timeout); err != nil {
		return fmt.Errorf("invalid linkcheck.timeout: %s: %w", lc.Timeout, err)
	}
	if lc.Concurrency > 64 {
		return fmt.Errorf("linkcheck.concurrency too large: %d (maximum 64)", lc.Concurrency)
	}
	return nil
}

func validatePort(field string, port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s out of range: %d", field, port)
	}
	return nil
}

// validateSchedule accepts a plain interval duration, standard 5-field
// cron expressions, the 6-field seconds variant, and @-descriptors.
// Full parsing happens when the scheduler registers the job.
func validateSchedule(expr string) error {
	expr = strings.TrimSpace(expr)
	if strings.HasPrefix(expr, "@") {
		return nil
	}
	if _, err := time.ParseDuration(expr); err == nil {
		return nil
	}
	if fields := strings.Fields(expr); len(fields) != 5 && len(fields) != 6 {
		return fmt.Errorf("expected a duration or 5/6 cron fields, got %q", expr)
	}
	return nil
}
