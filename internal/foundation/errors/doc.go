// Package errors provides foundational, type-safe error primitives used across mdpage.
//
// This package contains classified error types and helpers for robust error handling,
// including a fluent builder API for constructing ClassifiedError values with context.
//
// Key features:
//   - ErrorCategory: Broad error classification (config, parse, render, site, etc.)
//   - ErrorSeverity: Impact level (error, warning, info)
//   - RetryStrategy: Retry behavior (should-retry, no-retry, backoff)
//   - ClassifiedError: Structured error with category, severity, and context
//   - ErrorBuilder: Fluent API for creating classified errors
//   - HTTP and CLI adapters for error presentation
//
// Example usage:
//
//	err := errors.WrapError(parseErr, errors.CategoryParse, "document rejected").
//		WithSeverity(errors.SeverityError).
//		WithContext("path", docPath).
//		Build()
package errors
