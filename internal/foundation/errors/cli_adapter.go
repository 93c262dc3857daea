package errors

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

// CLIErrorAdapter handles error presentation and exit code determination for CLI applications.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
// Usage and parse failures exit 2, everything else exits 1.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}

	if classified, ok := AsClassified(err); ok {
		switch classified.Category() {
		case CategoryValidation, CategoryConfig, CategoryParse:
			return 2
		default:
			return 1
		}
	}

	return 1
}

// FormatError formats an error for user-friendly display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}

	if classified, ok := AsClassified(err); ok {
		if a.verbose {
			return classified.Error()
		}
		if cause := classified.Cause(); cause != nil {
			return fmt.Sprintf("%s: %v", classified.Message(), cause)
		}
		return classified.Message()
	}

	return fmt.Sprintf("Error: %v", err)
}

// HandleError processes an error and exits the program with appropriate code.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}

	exitCode := a.ExitCodeFor(err)
	message := a.FormatError(err)

	if a.shouldLog(err) {
		a.logError(err)
	}

	fmt.Fprintf(os.Stderr, "%s\n", message)
	os.Exit(exitCode)
}

// shouldLog determines if an error should be logged.
func (a *CLIErrorAdapter) shouldLog(err error) bool {
	if a.verbose {
		return true
	}

	if classified, ok := AsClassified(err); ok {
		return classified.Severity() == SeverityFatal
	}

	return true
}

// logError logs an error with appropriate level and context.
func (a *CLIErrorAdapter) logError(err error) {
	if classified, ok := AsClassified(err); ok {
		level := a.slogLevelFromSeverity(classified.Severity())
		attrs := []slog.Attr{
			slog.String("category", string(classified.Category())),
		}
		if classified.CanRetry() {
			attrs = append(attrs, slog.Bool("retryable", true))
		}

		a.logger.LogAttrs(context.Background(), level, classified.Message(), attrs...)
		return
	}

	a.logger.Error("Unclassified error", "error", err)
}

// slogLevelFromSeverity converts ClassifiedError severity to slog level.
func (a *CLIErrorAdapter) slogLevelFromSeverity(severity ErrorSeverity) slog.Level {
	switch severity {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	case SeverityError, SeverityFatal:
		return slog.LevelError
	default:
		return slog.LevelError
	}
}
