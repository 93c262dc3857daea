// Package handlers contains HTTP handlers for the mdpage admin API.
//
// This package provides handlers for:
//   - Health endpoints (monitoring)
//   - Daemon status and build history
//   - Manual build triggering
//   - Shared response helper functions
//
// All handlers follow a consistent pattern for error handling and response formatting,
// using the foundation/errors package for structured error handling and the
// server/responses package for standardized HTTP responses.
package handlers
