package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/accctl/internal/acc"
	"git.home.luguber.info/inful/accctl/internal/accd"
	"git.home.luguber.info/inful/accctl/internal/executor"
	"git.home.luguber.info/inful/accctl/internal/metrics"
	"git.home.luguber.info/inful/accctl/internal/preferences"
	"git.home.luguber.info/inful/accctl/internal/profile"
	"git.home.luguber.info/inful/accctl/internal/schedule"
	"git.home.luguber.info/inful/accctl/internal/server/responses"
	"git.home.luguber.info/inful/accctl/internal/session"
	"git.home.luguber.info/inful/accctl/internal/worker"
)

const liveConfig = `capacity=5,60,70-80
coolDown=50/10
temp=400-450_90
resetUnplugged=false
onBootExit=false
`

const (
	defaultWait = 2 * time.Second
	pollEvery   = 10 * time.Millisecond
)

type harness struct {
	t       *testing.T
	fake    *executor.Fake
	session *session.Session
	handler http.Handler
	cfgPath string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.txt")
	require.NoError(t, os.WriteFile(cfgPath, []byte(liveConfig), 0o600))

	fake := executor.NewFake()
	djs := &fakeDJS{jobs: map[string]map[string]string{"o": {}, "d": {}}}
	fake.OnFunc("djs", djs.handle)
	fake.OnOutput("acc -i", "CAPACITY=64", "STATUS=Charging", "TEMP=312")
	fake.OnOutput("acc -D", "accd is running (PID 1234)")
	fake.OnOutput("acc -s s:", "battery/charging_enabled 1 0", "")
	fake.OnFail("acc --set cVolt /sys", 2)

	client := accd.New(fake, cfgPath)
	store, err := profile.NewFSStore(filepath.Join(dir, "profiles"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	sess := session.New(client, store, preferences.NewMemory())
	sess.Load(context.Background())

	jobs := worker.NewDispatcher()
	t.Cleanup(func() { _ = jobs.Shutdown(context.Background()) })

	reg := prom.NewRegistry()
	metrics.NewPrometheusRecorder(reg)

	srv := New(Deps{
		Session:   sess,
		Client:    client,
		Schedules: schedule.NewManager(fake),
		Jobs:      jobs,
		Registry:  reg,
	})
	return &harness{t: t, fake: fake, session: sess, handler: srv.Handler(), cfgPath: cfgPath}
}

func (h *harness) do(method, path string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// finishedJob mirrors worker.Job with the result left raw.
type finishedJob struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Error  string          `json:"error"`
	Result json.RawMessage `json:"result"`
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[responses.HealthResponse](t, rec).Status)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json"))

	rec = h.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestGetConfig(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/api/config", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[responses.ConfigResponse](t, rec)
	assert.False(t, got.Fallback)
	assert.Equal(t, 80, got.Config.Capacity.Pause)
	assert.Nil(t, got.SelectedProfile)
}

func TestUpdateCapacityGroup(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodPut, "/api/config/capacity?wait=1", map[string]int{
		"shutdown": 10, "coolDown": 101, "resume": 60, "pause": 75,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	job := decode[finishedJob](t, rec)
	assert.Equal(t, string(worker.StatusSucceeded), job.Status)

	assert.Equal(t, []string{"acc -s capacity 10,101,60-75"}, h.fake.CallsWithPrefix("acc -s capacity"))
	assert.Equal(t, 75, h.session.Config().Capacity.Pause)
}

func TestUpdateGroupValidation(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodPut, "/api/config/capacity", map[string]int{"shutdown": 90, "resume": 60, "pause": 75})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodPut, "/api/config/bogus", map[string]int{})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, h.fake.CallsWithPrefix("acc -s"))
}

func TestUpdateGroupDispatchesWithoutWait(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodPut, "/api/config/onBootExit", map[string]bool{"value": true})
	require.Equal(t, http.StatusAccepted, rec.Code)
	accepted := decode[responses.JobAcceptedResponse](t, rec)
	require.NotEmpty(t, accepted.JobID)

	require.Eventually(t, func() bool {
		rec := h.do(http.MethodGet, "/api/jobs/"+accepted.JobID, nil)
		return rec.Code == http.StatusOK && decode[finishedJob](t, rec).Status == string(worker.StatusSucceeded)
	}, defaultWait, pollEvery)

	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/api/jobs/nope", nil).Code)
}

func TestRawConfigRoundTrip(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/api/config/raw", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	raw := decode[responses.RawConfigResponse](t, rec)
	assert.Equal(t, "capacity=5,60,70-80", raw.Lines[0])

	lines := append([]string{"capacity=5,101,40-60"}, raw.Lines[1:]...)
	rec = h.do(http.MethodPut, "/api/config/raw", map[string][]string{"lines": lines})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 60, h.session.Config().Capacity.Pause)

	require.NoError(t, os.Remove(h.cfgPath))
	rec = h.do(http.MethodPut, "/api/config/raw", map[string][]string{"lines": lines})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	_, err := os.Stat(h.cfgPath)
	assert.True(t, os.IsNotExist(err))
}

func TestRawConfigWriteClearsSelection(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.session.SaveProfile(ctx, "night"))
	res, err := h.session.ApplyProfile(ctx, "night")
	require.NoError(t, err)
	require.True(t, res.Successful())
	require.NotNil(t, h.session.SelectedProfile())

	rec := h.do(http.MethodPut, "/api/config/raw", map[string][]string{"lines": {"capacity=5,101,40-60", ""}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Nil(t, h.session.SelectedProfile())

	rec = h.do(http.MethodGet, "/api/selection", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decode[responses.SelectionResponse](t, rec).Selected)
}

func TestProfileLifecycle(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodPost, "/api/profiles", map[string]string{"name": "night"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = h.do(http.MethodPost, "/api/profiles", map[string]string{"name": "bad/name"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodPost, "/api/profiles/night/apply?wait=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, string(worker.StatusSucceeded), decode[finishedJob](t, rec).Status)

	sel := decode[responses.SelectionResponse](t, h.do(http.MethodGet, "/api/selection", nil))
	require.NotNil(t, sel.Selected)
	assert.Equal(t, "night", *sel.Selected)

	rec = h.do(http.MethodPost, "/api/profiles/night/rename", map[string]string{"name": "sleep"})
	require.Equal(t, http.StatusOK, rec.Code)
	sel = decode[responses.SelectionResponse](t, rec)
	require.NotNil(t, sel.Selected)
	assert.Equal(t, "sleep", *sel.Selected)

	list := decode[responses.ProfileListResponse](t, h.do(http.MethodGet, "/api/profiles", nil))
	assert.Equal(t, []string{"sleep"}, list.Profiles)

	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/api/profiles/night", nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodPost, "/api/profiles/night/apply", nil).Code)

	rec = h.do(http.MethodDelete, "/api/profiles/sleep", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	sel = decode[responses.SelectionResponse](t, h.do(http.MethodGet, "/api/selection", nil))
	assert.Nil(t, sel.Selected)
}

func TestLiveEditClearsSelection(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, http.StatusCreated, h.do(http.MethodPost, "/api/profiles", map[string]string{"name": "day"}).Code)
	require.Equal(t, http.StatusOK, h.do(http.MethodPost, "/api/profiles/day/apply?wait=1", nil).Code)

	rec := h.do(http.MethodPut, "/api/config/resetUnplugged?wait=1", map[string]bool{"value": true})
	require.Equal(t, http.StatusOK, rec.Code)

	sel := decode[responses.SelectionResponse](t, h.do(http.MethodGet, "/api/selection", nil))
	assert.Nil(t, sel.Selected)
}

func TestApplyWithRejectedVoltage(t *testing.T) {
	h := newHarness(t)

	cfg := h.session.Config()
	cfg.VoltControl = &acc.VoltControl{
		ControlFile:   acc.Ptr("/sys/class/power_supply/battery/voltage_max"),
		MaxMilliVolts: acc.Ptr(4100),
	}

	rec := h.do(http.MethodPut, "/api/config?wait=1", cfg)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	job := decode[finishedJob](t, rec)
	assert.Equal(t, string(worker.StatusFailed), job.Status)

	var res responses.ApplyResponse
	require.NoError(t, json.Unmarshal(job.Result, &res))
	assert.False(t, res.Success)
	assert.True(t, res.VoltControlFailed)
	for _, g := range res.Groups {
		if g.Group != "voltControl" {
			assert.True(t, g.Success, g.Group)
		}
	}
}

func TestTelemetryAndDaemon(t *testing.T) {
	h := newHarness(t)

	tel := decode[responses.TelemetryResponse](t, h.do(http.MethodGet, "/api/telemetry", nil))
	assert.Equal(t, 64, tel.Telemetry.Capacity)
	assert.True(t, tel.DaemonRunning)
	assert.False(t, tel.Cached)

	status := decode[responses.DaemonStatusResponse](t, h.do(http.MethodGet, "/api/daemon", nil))
	assert.True(t, status.Running)

	rec := h.do(http.MethodPost, "/api/daemon/restart?wait=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"acc -D restart"}, h.fake.CallsWithPrefix("acc -D restart"))

	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, "/api/daemon/explode", nil).Code)
	assert.Equal(t, http.StatusServiceUnavailable, h.do(http.MethodPost, "/api/visibility", map[string]bool{"visible": true}).Code)
}

func TestSwitchesAndMaintenance(t *testing.T) {
	h := newHarness(t)

	list := decode[responses.ListResponse](t, h.do(http.MethodGet, "/api/switches", nil))
	assert.Equal(t, []string{"battery/charging_enabled 1 0"}, list.Items)

	files := decode[responses.ListResponse](t, h.do(http.MethodGet, "/api/volt-files", nil))
	assert.NotNil(t, files.Items)

	res := decode[responses.ResultResponse](t, h.do(http.MethodPost, "/api/charge-once", map[string]int{"limit": 95}))
	assert.True(t, res.Success)
	assert.Equal(t, []string{"acc -f 95"}, h.fake.CallsWithPrefix("acc -f"))
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, "/api/charge-once", map[string]int{"limit": 0}).Code)

	res = decode[responses.ResultResponse](t, h.do(http.MethodPost, "/api/reset-stats", nil))
	assert.True(t, res.Success)
}

func TestScheduleLifecycle(t *testing.T) {
	h := newHarness(t)

	list := decode[responses.ScheduleListResponse](t, h.do(http.MethodGet, "/api/schedules", nil))
	assert.Empty(t, list.Schedules)

	rec := h.do(http.MethodPost, "/api/schedules", map[string]any{"hour": 7, "minute": 30, "command": "echo hi"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[schedule.Schedule](t, rec)
	assert.Equal(t, "0730", created.ID)
	assert.Equal(t, "echo hi", created.Command)

	rec = h.do(http.MethodPut, "/api/schedules/daily/0730", map[string]string{"command": "echo bye"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "echo bye", decode[schedule.Schedule](t, rec).Command)

	assert.Equal(t, http.StatusNotFound, h.do(http.MethodPut, "/api/schedules/once/0730", map[string]string{"command": "x"}).Code)
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, "/api/schedules", map[string]any{"hour": 25, "minute": 0, "command": "x"}).Code)

	rec = h.do(http.MethodDelete, "/api/schedules/daily/0730", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	list = decode[responses.ScheduleListResponse](t, h.do(http.MethodGet, "/api/schedules?class=daily", nil))
	assert.Empty(t, list.Schedules)
}

func TestUnknownRoute(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/api/nothing", nil).Code)
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPatch, "/api/telemetry", nil).Code)
}

// fakeDJS answers the djs text protocol from memory.
type fakeDJS struct {
	mu   sync.Mutex
	jobs map[string]map[string]string
}

var (
	djsAdd    = regexp.MustCompile(`^djs ([od]) (\d{2}) (\d{2}) "(.*)"$`)
	djsCancel = regexp.MustCompile(`^djs cancel (once|daily) (\d{4})$`)
)

func (d *fakeDJS) handle(lines []string) executor.Result {
	d.mu.Lock()
	defer d.mu.Unlock()
	line := lines[0]
	switch {
	case strings.HasPrefix(line, "djs i "):
		class := strings.TrimPrefix(line, "djs i ")
		ids := make([]string, 0, len(d.jobs[class]))
		for id := range d.jobs[class] {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		var out []string
		for _, id := range ids {
			out = append(out, fmt.Sprintf("%s: %s", id, d.jobs[class][id]))
		}
		return executor.Result{Success: true, Output: out}
	case djsAdd.MatchString(line):
		m := djsAdd.FindStringSubmatch(line)
		d.jobs[m[1]][m[2]+m[3]] = m[4]
		return executor.Result{Success: true}
	case djsCancel.MatchString(line):
		m := djsCancel.FindStringSubmatch(line)
		delete(d.jobs[m[1][:1]], m[2])
		return executor.Result{Success: true}
	}
	return executor.Result{Success: false, ExitCode: 127}
}
