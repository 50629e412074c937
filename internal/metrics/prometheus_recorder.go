package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "accctl"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once            sync.Once
	commandDuration *prom.HistogramVec
	commandResults  *prom.CounterVec
	pollDuration    *prom.HistogramVec
	profileApplies  *prom.CounterVec
	scheduleChanges *prom.CounterVec
	configReloads   prom.Counter
	batteryCapacity prom.Gauge
	batteryTemp     prom.Gauge
	batteryCurrent  prom.Gauge
	batteryCharging prom.Gauge
	daemonRunning   prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.commandDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Duration of privileged command invocations",
			Buckets:   prom.DefBuckets,
		}, []string{"command", "result"})
		pr.commandResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "command_results_total",
			Help:      "Command invocations by success/failure",
		}, []string{"command", "result"})
		pr.pollDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "poll_duration_seconds",
			Help:      "Duration of telemetry poll ticks",
			Buckets:   prom.DefBuckets,
		}, []string{"result"})
		pr.profileApplies = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "profile_applies_total",
			Help:      "Profile applications by composite outcome",
		}, []string{"result"})
		pr.scheduleChanges = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "schedule_mutations_total",
			Help:      "Schedule add/delete/edit operations by result",
		}, []string{"op", "result"})
		pr.configReloads = prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "config_reloads_total",
			Help:      "Live configuration reloads triggered by file changes",
		})
		pr.batteryCapacity = prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "battery_capacity_percent",
			Help:      "Last observed battery capacity",
		})
		pr.batteryTemp = prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "battery_temperature_celsius",
			Help:      "Last observed battery temperature",
		})
		pr.batteryCurrent = prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "battery_current_milliamps",
			Help:      "Last observed battery current",
		})
		pr.batteryCharging = prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "battery_charging",
			Help:      "1 when the battery reports Charging",
		})
		pr.daemonRunning = prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "daemon_running",
			Help:      "1 when accd reports it is running",
		})
		reg.MustRegister(pr.commandDuration, pr.commandResults, pr.pollDuration, pr.profileApplies,
			pr.scheduleChanges, pr.configReloads, pr.batteryCapacity, pr.batteryTemp, pr.batteryCurrent,
			pr.batteryCharging, pr.daemonRunning)
	})
	return pr
}

func resultOf(success bool) string {
	if success {
		return "success"
	}
	return "failed"
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func (p *PrometheusRecorder) ObserveCommand(name string, d time.Duration, success bool) {
	if p == nil || p.commandDuration == nil {
		return
	}
	res := resultOf(success)
	p.commandDuration.WithLabelValues(name, res).Observe(d.Seconds())
	p.commandResults.WithLabelValues(name, res).Inc()
}

func (p *PrometheusRecorder) ObservePoll(d time.Duration, success bool) {
	if p == nil || p.pollDuration == nil {
		return
	}
	p.pollDuration.WithLabelValues(resultOf(success)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncProfileApply(result ResultLabel) {
	if p == nil || p.profileApplies == nil {
		return
	}
	p.profileApplies.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncScheduleMutation(op string, success bool) {
	if p == nil || p.scheduleChanges == nil {
		return
	}
	p.scheduleChanges.WithLabelValues(op, resultOf(success)).Inc()
}

func (p *PrometheusRecorder) IncConfigReload() {
	if p == nil || p.configReloads == nil {
		return
	}
	p.configReloads.Inc()
}

func (p *PrometheusRecorder) SetBattery(capacity, temperature, currentMilliAmps int) {
	if p == nil || p.batteryCapacity == nil {
		return
	}
	p.batteryCapacity.Set(float64(capacity))
	p.batteryTemp.Set(float64(temperature))
	p.batteryCurrent.Set(float64(currentMilliAmps))
}

func (p *PrometheusRecorder) SetCharging(charging bool) {
	if p == nil || p.batteryCharging == nil {
		return
	}
	p.batteryCharging.Set(boolGauge(charging))
}

func (p *PrometheusRecorder) SetDaemonRunning(running bool) {
	if p == nil || p.daemonRunning == nil {
		return
	}
	p.daemonRunning.Set(boolGauge(running))
}
