package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"git.home.luguber.info/inful/accctl/internal/accd"
	"git.home.luguber.info/inful/accctl/internal/foundation/errors"
	"git.home.luguber.info/inful/accctl/internal/poller"
	"git.home.luguber.info/inful/accctl/internal/server/responses"
	"git.home.luguber.info/inful/accctl/internal/worker"
)

// staleAfter bounds how old a polled snapshot may be before telemetry is sampled directly.
const staleAfter = 5 * time.Second

// DaemonHandlers serves telemetry and daemon control.
type DaemonHandlers struct {
	client       *accd.Client
	poller       *poller.Poller
	dispatch     dispatcher
	errorAdapter *errors.HTTPErrorAdapter
}

// NewDaemonHandlers creates daemon handlers. p may be nil when polling is not running.
func NewDaemonHandlers(client *accd.Client, p *poller.Poller, jobs *worker.Dispatcher, adapter *errors.HTTPErrorAdapter) *DaemonHandlers {
	return &DaemonHandlers{
		client:       client,
		poller:       p,
		dispatch:     dispatcher{jobs: jobs, errorAdapter: adapter},
		errorAdapter: adapter,
	}
}

// HandleTelemetry handles GET /api/telemetry. A fresh polled snapshot is
// served when available; ?live=1 always samples the daemon.
func (h *DaemonHandlers) HandleTelemetry(w http.ResponseWriter, r *http.Request) {
	live := r.URL.Query().Get("live")
	if h.poller != nil && live != "1" && live != "true" {
		if snap, ok := h.poller.Latest(); ok && time.Since(snap.TakenAt) < staleAfter {
			respond(h.errorAdapter, w, r, http.StatusOK, responses.TelemetryResponse{
				Telemetry:     snap.Telemetry,
				DaemonRunning: snap.DaemonRunning,
				TakenAt:       snap.TakenAt,
				Cached:        true,
			})
			return
		}
	}

	ctx := r.Context()
	respond(h.errorAdapter, w, r, http.StatusOK, responses.TelemetryResponse{
		Telemetry:     h.client.Telemetry(ctx),
		DaemonRunning: h.client.IsDaemonRunning(ctx),
		TakenAt:       time.Now().UTC(),
	})
}

// HandleStatus handles GET /api/daemon.
func (h *DaemonHandlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	respond(h.errorAdapter, w, r, http.StatusOK, responses.DaemonStatusResponse{Running: h.client.IsDaemonRunning(r.Context())})
}

// HandleAction handles POST /api/daemon/{action}.
func (h *DaemonHandlers) HandleAction(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "action")
	action, ok := accd.ParseDaemonAction(raw)
	if !ok {
		h.errorAdapter.WriteErrorResponse(w, r, errors.ValidationError("unknown daemon action").
			WithContext("action", raw).
			WithContext("accepted", "restart, start, stop, toggle").
			Build())
		return
	}

	h.dispatch.run(w, r, "daemon."+string(action), func(ctx context.Context) (any, error) {
		if !h.client.ControlDaemon(ctx, action) {
			return responses.ResultResponse{}, errors.ExecutionError("daemon control failed").
				WithContext("action", string(action)).Build()
		}
		return responses.DaemonStatusResponse{Running: h.client.IsDaemonRunning(ctx)}, nil
	})
}

// HandleVisibility handles POST /api/visibility. Polling runs only while the front end is visible.
func (h *DaemonHandlers) HandleVisibility(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Visible bool `json:"visible"`
	}
	if err := decodeJSON(r, &body); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	if h.poller == nil {
		h.errorAdapter.WriteErrorResponse(w, r, errors.RuntimeError("telemetry polling is not running").Build())
		return
	}
	if err := h.poller.SetVisible(body.Visible); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, errors.WrapError(err, errors.CategoryRuntime, "failed to change polling state").Build())
		return
	}
	respond(h.errorAdapter, w, r, http.StatusOK, map[string]bool{"polling": h.poller.Active()})
}

// HandleSwitches handles GET /api/switches.
func (h *DaemonHandlers) HandleSwitches(w http.ResponseWriter, r *http.Request) {
	respond(h.errorAdapter, w, r, http.StatusOK, responses.ListResponse{Items: nonNil(h.client.ListChargingSwitches(r.Context()))})
}

// HandleTestSwitch handles POST /api/switches/test. An omitted switch tests the current one.
func (h *DaemonHandlers) HandleTestSwitch(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Switch *string `json:"switch"`
	}
	if err := decodeJSON(r, &body); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	code := h.client.TestChargingSwitch(r.Context(), body.Switch)
	respond(h.errorAdapter, w, r, http.StatusOK, responses.SwitchTestResponse{Switch: body.Switch, ExitCode: code, Works: code == 0})
}

// HandleVoltFiles handles GET /api/volt-files.
func (h *DaemonHandlers) HandleVoltFiles(w http.ResponseWriter, r *http.Request) {
	respond(h.errorAdapter, w, r, http.StatusOK, responses.ListResponse{Items: nonNil(h.client.ListVoltageControlFiles(r.Context()))})
}

// HandleChargeOnce handles POST /api/charge-once.
func (h *DaemonHandlers) HandleChargeOnce(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Limit int `json:"limit"`
	}
	if err := decodeJSON(r, &body); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	if body.Limit < 1 || body.Limit > 100 {
		h.errorAdapter.WriteErrorResponse(w, r, errors.ValidationError("charge limit out of range").
			WithContext("limit", body.Limit).Build())
		return
	}
	respond(h.errorAdapter, w, r, http.StatusOK, responses.ResultResponse{Success: h.client.ChargeOnce(r.Context(), body.Limit)})
}

// HandleResetStats handles POST /api/reset-stats.
func (h *DaemonHandlers) HandleResetStats(w http.ResponseWriter, r *http.Request) {
	respond(h.errorAdapter, w, r, http.StatusOK, responses.ResultResponse{Success: h.client.ResetBatteryStats(r.Context())})
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
