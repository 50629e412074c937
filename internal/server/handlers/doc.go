// Package handlers contains HTTP handlers for the accctl JSON API.
//
// Handlers are grouped by resource:
//   - config: live daemon configuration, per field group and raw config.txt
//   - daemon: telemetry, lifecycle, charging switches and voltage files
//   - profiles: stored profiles and the active selection
//   - schedules: djs jobs
//   - jobs: status of operations dispatched in the background
//
// Errors are classified with foundation/errors and rendered through the
// HTTPErrorAdapter. Side-effecting operations run on the worker dispatcher
// and answer 202 with a job id unless the request carries ?wait=1.
package handlers
