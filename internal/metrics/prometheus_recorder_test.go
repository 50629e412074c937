package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveCommand("acc -i", 150*time.Millisecond, true)
	pr.ObserveCommand("acc -s", 20*time.Millisecond, false)
	pr.ObservePoll(time.Second, true)
	pr.IncProfileApply(ResultVoltageFailed)
	pr.IncScheduleMutation("add", true)
	pr.IncConfigReload()
	pr.SetBattery(81, 30, 1200)
	pr.SetCharging(true)
	pr.SetDaemonRunning(true)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, mfs)

	assert.InDelta(t, 1, testutil.ToFloat64(pr.commandResults.WithLabelValues("acc -s", "failed")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(pr.profileApplies.WithLabelValues("voltage_failed")), 0)
	assert.InDelta(t, 81, testutil.ToFloat64(pr.batteryCapacity), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(pr.daemonRunning), 0)
}

func TestNilPrometheusRecorderIsSafe(t *testing.T) {
	var pr *PrometheusRecorder
	pr.ObserveCommand("acc -i", time.Millisecond, true)
	pr.SetBattery(1, 2, 3)
	pr.SetDaemonRunning(false)
}

func TestNoopRecorderSatisfiesInterface(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveCommand("x", 0, true)
	r.IncProfileApply(ResultSuccess)
}

func TestHandlerServesRegistry(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncConfigReload()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "accctl_config_reloads_total"))
}
