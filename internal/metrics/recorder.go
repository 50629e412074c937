package metrics

import "time"

// ResultLabel enumerates composite operation outcomes for counters.
type ResultLabel string

const (
	ResultSuccess       ResultLabel = "success"
	ResultVoltageFailed ResultLabel = "voltage_failed"
	ResultFailed        ResultLabel = "failed"
)

// Recorder defines observability hooks for command execution, polling and
// profile handling. All NoopRecorder methods are safe to call on the zero value.
type Recorder interface {
	ObserveCommand(name string, d time.Duration, success bool)
	ObservePoll(d time.Duration, success bool)
	IncProfileApply(result ResultLabel)
	IncScheduleMutation(op string, success bool)
	IncConfigReload()
	SetBattery(capacity, temperature, currentMilliAmps int)
	SetCharging(charging bool)
	SetDaemonRunning(running bool)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveCommand(string, time.Duration, bool) {}
func (NoopRecorder) ObservePoll(time.Duration, bool)            {}
func (NoopRecorder) IncProfileApply(ResultLabel)                {}
func (NoopRecorder) IncScheduleMutation(string, bool)           {}
func (NoopRecorder) IncConfigReload()                           {}
func (NoopRecorder) SetBattery(int, int, int)                   {}
func (NoopRecorder) SetCharging(bool)                           {}
func (NoopRecorder) SetDaemonRunning(bool)                      {}
