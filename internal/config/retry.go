package config

import "strings"

// RetryBackoffMode enumerates supported backoff strategies for retries.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

// NormalizeRetryBackoff canonicalizes user input, returning empty string
// for unknown values.
func NormalizeRetryBackoff(raw string) RetryBackoffMode {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(RetryBackoffFixed):
		return RetryBackoffFixed
	case string(RetryBackoffLinear):
		return RetryBackoffLinear
	case string(RetryBackoffExponential):
		return RetryBackoffExponential
	default:
		return ""
	}
}
