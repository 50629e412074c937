// Package responses defines the JSON bodies returned by the accctl HTTP API.
package responses

import (
	"time"

	"git.home.luguber.info/inful/accctl/internal/acc"
	"git.home.luguber.info/inful/accctl/internal/accd"
	"git.home.luguber.info/inful/accctl/internal/schedule"
)

// HealthResponse represents the health check API response.
type HealthResponse struct {
	Status    string    `json:"status"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    float64   `json:"uptime"`
}

// ConfigResponse is the live daemon configuration plus session state.
type ConfigResponse struct {
	Config          acc.Config `json:"config"`
	Fallback        bool       `json:"fallback"`
	SelectedProfile *string    `json:"selectedProfile"`
}

// RawConfigResponse carries config.txt line by line.
type RawConfigResponse struct {
	Path  string   `json:"path"`
	Lines []string `json:"lines"`
}

// EditResponse reports a single field group push.
type EditResponse struct {
	Group   string `json:"group"`
	Success bool   `json:"success"`
}

// ApplyResponse reports a full config push.
type ApplyResponse struct {
	Success           bool               `json:"success"`
	VoltControlFailed bool               `json:"voltControlFailed"`
	Groups            []accd.GroupResult `json:"groups"`
}

// NewApplyResponse summarises res.
func NewApplyResponse(res accd.ApplyResult) ApplyResponse {
	groups := res.Groups
	if groups == nil {
		groups = []accd.GroupResult{}
	}
	return ApplyResponse{
		Success:           res.Successful(),
		VoltControlFailed: res.VoltControlFailed(),
		Groups:            groups,
	}
}

// TelemetryResponse is one telemetry sample.
type TelemetryResponse struct {
	Telemetry     acc.Telemetry `json:"telemetry"`
	DaemonRunning bool          `json:"daemonRunning"`
	TakenAt       time.Time     `json:"takenAt"`
	Cached        bool          `json:"cached"`
}

// DaemonStatusResponse reports the daemon lifecycle state.
type DaemonStatusResponse struct {
	Running bool `json:"running"`
}

// JobAcceptedResponse is returned when an operation was dispatched in the background.
type JobAcceptedResponse struct {
	Status string `json:"status"`
	JobID  string `json:"job_id"`
}

// ProfileListResponse lists profile names in display order.
type ProfileListResponse struct {
	Profiles []string `json:"profiles"`
	Selected *string  `json:"selected"`
}

// ProfileResponse is one stored profile.
type ProfileResponse struct {
	Name   string     `json:"name"`
	Config acc.Config `json:"config"`
}

// SelectionResponse reports the selected profile, null when the live config is custom.
type SelectionResponse struct {
	Selected *string `json:"selected"`
}

// ScheduleListResponse lists djs jobs.
type ScheduleListResponse struct {
	Schedules []schedule.Schedule `json:"schedules"`
}

// ResultResponse reports the success of a daemon command.
type ResultResponse struct {
	Success bool `json:"success"`
}

// ListResponse wraps a plain list of strings.
type ListResponse struct {
	Items []string `json:"items"`
}

// SwitchTestResponse reports `acc -t` for a switch.
type SwitchTestResponse struct {
	Switch   *string `json:"switch"`
	ExitCode int     `json:"exitCode"`
	Works    bool    `json:"works"`
}
