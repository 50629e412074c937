// Package metrics provides the observability hooks for daemon interaction.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no caller needs nil checks:
//
//	type Client struct {
//	    recorder metrics.Recorder
//	}
//
// When the HTTP surface is enabled, a PrometheusRecorder is registered on a
// dedicated registry and served through Handler.
package metrics
