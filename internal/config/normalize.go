package config

import (
	"fmt"
	"strings"
)

// NormalizationResult captures coercions and warnings from the
// normalization pass.
type NormalizationResult struct {
	Warnings []string
}

// NormalizeConfig canonicalizes enumerated and bounded fields before
// defaults are applied. It mutates cfg in place and reports every
// coercion as a warning.
func NormalizeConfig(cfg *Config) *NormalizationResult {
	res := &NormalizationResult{}
	if cfg == nil {
		return res
	}

	normalizeBuild(&cfg.Build, res)
	normalizeLogging(&cfg.Logging, res)
	normalizeExport(&cfg.Export, res)
	normalizeServe(cfg.Serve, res)

	cfg.Source.Include = trimPatterns(cfg.Source.Include)
	cfg.Source.Exclude = trimPatterns(cfg.Source.Exclude)

	return res
}

func normalizeBuild(b *BuildConfig, res *NormalizationResult) {
	if b.Concurrency < 0 {
		res.warnf("clamped negative build.concurrency to 0")
		b.Concurrency = 0
	}
	if b.MaxRetries < 0 {
		res.warnf("clamped negative build.max_retries to 0")
		b.MaxRetries = 0
	}

	if raw := string(b.RetryBackoff); strings.TrimSpace(raw) != "" {
		mode := NormalizeRetryBackoff(raw)
		switch {
		case mode == "":
			res.warnf("unknown build.retry_backoff '%s', defaulting to %s", raw, RetryBackoffLinear)
			b.RetryBackoff = RetryBackoffLinear
		case mode != b.RetryBackoff:
			res.warnf("normalized build.retry_backoff from '%s' to '%s'", raw, mode)
			b.RetryBackoff = mode
		}
	}
}

func normalizeLogging(l *LoggingConfig, res *NormalizationResult) {
	if raw := string(l.Level); strings.TrimSpace(raw) != "" {
		lvl := NormalizeLogLevel(raw)
		switch {
		case lvl == "":
			res.warnf("unknown logging.level '%s', defaulting to %s", raw, LogLevelInfo)
			l.Level = LogLevelInfo
		case lvl != l.Level:
			res.warnf("normalized logging.level from '%s' to '%s'", raw, lvl)
			l.Level = lvl
		}
	}

	if raw := string(l.Format); strings.TrimSpace(raw) != "" {
		f := NormalizeLogFormat(raw)
		switch {
		case f == "":
			res.warnf("unknown logging.format '%s', defaulting to %s", raw, LogFormatText)
			l.Format = LogFormatText
		case f != l.Format:
			res.warnf("normalized logging.format from '%s' to '%s'", raw, f)
			l.Format = f
		}
	}
}

func normalizeExport(e *ExportConfig, res *NormalizationResult) {
	if raw := string(e.Format); strings.TrimSpace(raw) != "" {
		f := NormalizeArchiveFormat(raw)
		switch {
		case f == "":
			res.warnf("unknown export.format '%s', defaulting to %s", raw, ArchiveTarXz)
			e.Format = ArchiveTarXz
		case f != e.Format:
			res.warnf("normalized export.format from '%s' to '%s'", raw, f)
			e.Format = f
		}
	}
}

func normalizeServe(s *ServeConfig, res *NormalizationResult) {
	if s == nil {
		return
	}
	if s.Watch.DebounceMS < 0 {
		res.warnf("clamped negative serve.watch.debounce_ms to 0")
		s.Watch.DebounceMS = 0
	}
}

func (r *NormalizationResult) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// trimPatterns removes empty entries after trimming whitespace. Order
// is preserved; patterns are order-sensitive.
func trimPatterns(in []string) []string {
	if len(in) == 0 {
		return in
	}

	out := make([]string, 0, len(in))
	for _, p := range in {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
