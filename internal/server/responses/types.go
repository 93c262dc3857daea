// Package responses defines API response types used by mdpage HTTP handlers.
package responses

import "time"

// HealthResponse represents the health check API response.
type HealthResponse struct {
	Status       string    `json:"status"`
	Timestamp    time.Time `json:"timestamp"`
	Version      string    `json:"version"`
	Uptime       float64   `json:"uptime"`
	DaemonStatus string    `json:"daemon_status,omitempty"`
	Building     bool      `json:"building,omitempty"`
}

// StatusResponse represents the daemon's operational status.
type StatusResponse struct {
	Status      string        `json:"status"`
	Uptime      float64       `json:"uptime"`
	StartTime   time.Time     `json:"start_time"`
	Site        SiteSummary   `json:"site"`
	Builds      BuildCounters `json:"builds"`
	ActiveBuild *BuildView    `json:"active_build,omitempty"`
	LastBuild   *BuildView    `json:"last_build,omitempty"`
	LastSync    *time.Time    `json:"last_sync,omitempty"`
	Timestamp   time.Time     `json:"timestamp"`
}

// SiteSummary represents a sanitized view of the site configuration.
type SiteSummary struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	BaseURL     string `json:"base_url,omitempty"`
	SourceDir   string `json:"source_dir"`
	OutputDir   string `json:"output_dir"`
}

// BuildCounters aggregates build outcomes since daemon start.
type BuildCounters struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// BuildView represents one build in API responses.
type BuildView struct {
	ID           string     `json:"id"`
	Status       string     `json:"status"`
	Trigger      string     `json:"trigger,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	Duration     string     `json:"duration,omitempty"`
	Outcome      string     `json:"outcome,omitempty"`
	Articles     int        `json:"articles"`
	Assets       int        `json:"assets"`
	SkipReason   string     `json:"skip_reason,omitempty"`
	ErrorStage   string     `json:"error_stage,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
}

// HistoryResponse represents the build history API response.
type HistoryResponse struct {
	Status    string      `json:"status"`
	Builds    []BuildView `json:"builds"`
	Count     int         `json:"count"`
	Timestamp time.Time   `json:"timestamp"`
}

// TriggerResponse represents the response for the build trigger endpoint.
type TriggerResponse struct {
	Status  string `json:"status"`
	BuildID string `json:"build_id,omitempty"`
}
