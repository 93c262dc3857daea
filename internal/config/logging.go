package config

import (
	"log/slog"
	"strings"
)

// LogLevel enumerates supported logging levels.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// NormalizeLogLevel canonicalizes user input, returning empty string
// for unknown values.
func NormalizeLogLevel(raw string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(LogLevelDebug):
		return LogLevelDebug
	case string(LogLevelInfo):
		return LogLevelInfo
	case string(LogLevelWarn):
		return LogLevelWarn
	case string(LogLevelError):
		return LogLevelError
	default:
		return ""
	}
}

// Slog maps the level onto the slog scale.
func (l LogLevel) Slog() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogFormat enumerates supported log output formats.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// NormalizeLogFormat canonicalizes user input, returning empty string
// for unknown values.
func NormalizeLogFormat(raw string) LogFormat {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(LogFormatText):
		return LogFormatText
	case string(LogFormatJSON):
		return LogFormatJSON
	default:
		return ""
	}
}
