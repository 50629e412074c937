package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"git.home.luguber.info/inful/accctl/internal/acc"
	"git.home.luguber.info/inful/accctl/internal/accd"
	"git.home.luguber.info/inful/accctl/internal/foundation/errors"
	"git.home.luguber.info/inful/accctl/internal/server/responses"
	"git.home.luguber.info/inful/accctl/internal/session"
	"git.home.luguber.info/inful/accctl/internal/worker"
)

// ConfigHandlers serves the live daemon configuration.
type ConfigHandlers struct {
	session      *session.Session
	client       *accd.Client
	dispatch     dispatcher
	errorAdapter *errors.HTTPErrorAdapter
}

// NewConfigHandlers creates config handlers.
func NewConfigHandlers(s *session.Session, client *accd.Client, jobs *worker.Dispatcher, adapter *errors.HTTPErrorAdapter) *ConfigHandlers {
	return &ConfigHandlers{
		session:      s,
		client:       client,
		dispatch:     dispatcher{jobs: jobs, errorAdapter: adapter},
		errorAdapter: adapter,
	}
}

// HandleGet handles GET /api/config. ?reload=1 re-reads config.txt first.
func (h *ConfigHandlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	if q := r.URL.Query().Get("reload"); q == "1" || q == "true" {
		h.session.Load(r.Context())
	}
	respond(h.errorAdapter, w, r, http.StatusOK, responses.ConfigResponse{
		Config:          h.session.Config(),
		Fallback:        h.session.UsingFallback(),
		SelectedProfile: h.session.SelectedProfile(),
	})
}

// HandleApply handles PUT /api/config: every field group is pushed.
func (h *ConfigHandlers) HandleApply(w http.ResponseWriter, r *http.Request) {
	var cfg acc.Config
	if err := decodeJSON(r, &cfg); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	if err := cfg.Validate(); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	h.dispatch.run(w, r, "config.apply", func(ctx context.Context) (any, error) {
		res, err := h.session.ApplyConfig(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return responses.NewApplyResponse(res), res.Err()
	})
}

// HandleUpdateGroup handles PUT /api/config/{group}.
func (h *ConfigHandlers) HandleUpdateGroup(w http.ResponseWriter, r *http.Request) {
	group := chi.URLParam(r, "group")
	edit, err := h.decodeGroupEdit(r, group)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	h.dispatch.run(w, r, "config."+group, func(ctx context.Context) (any, error) {
		ok := edit(ctx)
		resp := responses.EditResponse{Group: group, Success: ok}
		if !ok {
			return resp, errors.ExecutionError("daemon rejected config change").WithContext("group", group).Build()
		}
		return resp, nil
	})
}

// HandleGetRaw handles GET /api/config/raw.
func (h *ConfigHandlers) HandleGetRaw(w http.ResponseWriter, r *http.Request) {
	lines, err := h.client.ReadRawConfig()
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	respond(h.errorAdapter, w, r, http.StatusOK, responses.RawConfigResponse{Path: h.client.ConfigPath(), Lines: lines})
}

// HandlePutRaw handles PUT /api/config/raw. The file must already exist.
func (h *ConfigHandlers) HandlePutRaw(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Lines []string `json:"lines"`
	}
	if err := decodeJSON(r, &body); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	written, err := h.session.WriteRawConfig(r.Context(), body.Lines)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	if !written {
		h.errorAdapter.WriteErrorResponse(w, r, errors.NotFoundError("daemon config").
			WithContext("path", h.client.ConfigPath()).Build())
		return
	}
	respond(h.errorAdapter, w, r, http.StatusOK, responses.RawConfigResponse{Path: h.client.ConfigPath(), Lines: body.Lines})
}

type boolValue struct {
	Value bool `json:"value"`
}

type stringValue struct {
	Value *string `json:"value"`
}

// decodeGroupEdit parses the body for group and returns the edit to run.
// Validation happens here so bad input is rejected before anything is dispatched.
func (h *ConfigHandlers) decodeGroupEdit(r *http.Request, group string) (func(context.Context) bool, error) {
	s := h.session
	switch group {
	case acc.GroupCapacity:
		var c acc.Capacity
		if err := decodeJSON(r, &c); err != nil {
			return nil, err
		}
		if err := c.Validate(); err != nil {
			return nil, err
		}
		return func(ctx context.Context) bool {
			ok, _ := s.SetCapacity(ctx, c)
			return ok
		}, nil
	case acc.GroupCooldown:
		var c *acc.Cooldown
		if err := decodeJSON(r, &c); err != nil {
			return nil, err
		}
		return func(ctx context.Context) bool { return s.SetCooldown(ctx, c) }, nil
	case acc.GroupTemp:
		var t acc.Temp
		if err := decodeJSON(r, &t); err != nil {
			return nil, err
		}
		if t.CoolDownTemp > t.PauseChargingTemp {
			return nil, errors.ValidationError("temp coolDown must not exceed pause temperature").Build()
		}
		return func(ctx context.Context) bool { return s.SetTemp(ctx, t) }, nil
	case acc.GroupVoltControl:
		var v *acc.VoltControl
		if err := decodeJSON(r, &v); err != nil {
			return nil, err
		}
		return func(ctx context.Context) bool { return s.SetVoltControl(ctx, v) }, nil
	case acc.GroupResetUnplugged, acc.GroupOnBootExit:
		var b boolValue
		if err := decodeJSON(r, &b); err != nil {
			return nil, err
		}
		if group == acc.GroupResetUnplugged {
			return func(ctx context.Context) bool { return s.SetResetUnplugged(ctx, b.Value) }, nil
		}
		return func(ctx context.Context) bool { return s.SetOnBootExit(ctx, b.Value) }, nil
	case acc.GroupOnBoot, acc.GroupOnPlugged, acc.GroupChargingSwitch:
		var sv stringValue
		if err := decodeJSON(r, &sv); err != nil {
			return nil, err
		}
		switch group {
		case acc.GroupOnBoot:
			return func(ctx context.Context) bool { return s.SetOnBoot(ctx, sv.Value) }, nil
		case acc.GroupOnPlugged:
			return func(ctx context.Context) bool { return s.SetOnPlugged(ctx, sv.Value) }, nil
		default:
			return func(ctx context.Context) bool { return s.SetChargingSwitch(ctx, sv.Value) }, nil
		}
	default:
		return nil, errors.NotFoundError("config group").WithContext("group", group).Build()
	}
}
