package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"git.home.luguber.info/inful/accctl/internal/acc"
	"git.home.luguber.info/inful/accctl/internal/foundation/errors"
	"git.home.luguber.info/inful/accctl/internal/profile"
	"git.home.luguber.info/inful/accctl/internal/server/responses"
	"git.home.luguber.info/inful/accctl/internal/session"
	"git.home.luguber.info/inful/accctl/internal/worker"
)

// ProfileHandlers serves stored profiles and the active selection.
type ProfileHandlers struct {
	session      *session.Session
	dispatch     dispatcher
	errorAdapter *errors.HTTPErrorAdapter
}

// NewProfileHandlers creates profile handlers.
func NewProfileHandlers(s *session.Session, jobs *worker.Dispatcher, adapter *errors.HTTPErrorAdapter) *ProfileHandlers {
	return &ProfileHandlers{
		session:      s,
		dispatch:     dispatcher{jobs: jobs, errorAdapter: adapter},
		errorAdapter: adapter,
	}
}

// HandleList handles GET /api/profiles.
func (h *ProfileHandlers) HandleList(w http.ResponseWriter, r *http.Request) {
	names, err := h.session.Profiles().List(r.Context())
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	respond(h.errorAdapter, w, r, http.StatusOK, responses.ProfileListResponse{Profiles: names, Selected: h.session.SelectedProfile()})
}

// HandleCreate handles POST /api/profiles. Without a config the current live config is saved.
func (h *ProfileHandlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name   string      `json:"name"`
		Config *acc.Config `json:"config"`
	}
	if err := decodeJSON(r, &body); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	if err := profile.ValidateName(body.Name); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	ctx := r.Context()
	var err error
	cfg := h.session.Config()
	if body.Config != nil {
		if err = body.Config.Validate(); err != nil {
			h.errorAdapter.WriteErrorResponse(w, r, err)
			return
		}
		cfg = *body.Config
		err = h.session.Profiles().Create(ctx, body.Name, cfg)
	} else {
		err = h.session.SaveProfile(ctx, body.Name)
	}
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	respond(h.errorAdapter, w, r, http.StatusCreated, responses.ProfileResponse{Name: body.Name, Config: cfg})
}

// HandleGet handles GET /api/profiles/{name}.
func (h *ProfileHandlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	cfg, err := h.session.Profiles().Read(r.Context(), name)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	respond(h.errorAdapter, w, r, http.StatusOK, responses.ProfileResponse{Name: name, Config: cfg})
}

// HandleUpdate handles PUT /api/profiles/{name}.
func (h *ProfileHandlers) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var cfg acc.Config
	if err := decodeJSON(r, &cfg); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	if err := cfg.Validate(); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	if err := h.session.Profiles().Update(r.Context(), name, cfg); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	respond(h.errorAdapter, w, r, http.StatusOK, responses.ProfileResponse{Name: name, Config: cfg})
}

// HandleDelete handles DELETE /api/profiles/{name}.
func (h *ProfileHandlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.session.DeleteProfile(r.Context(), chi.URLParam(r, "name")); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRename handles POST /api/profiles/{name}/rename.
func (h *ProfileHandlers) HandleRename(w http.ResponseWriter, r *http.Request) {
	oldName := chi.URLParam(r, "name")
	var body struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &body); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	if err := h.session.RenameProfile(r.Context(), oldName, body.Name); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	respond(h.errorAdapter, w, r, http.StatusOK, responses.SelectionResponse{Selected: h.session.SelectedProfile()})
}

// HandleApply handles POST /api/profiles/{name}/apply.
func (h *ProfileHandlers) HandleApply(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, err := h.session.Profiles().Read(r.Context(), name); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	h.dispatch.run(w, r, "profile.apply", func(ctx context.Context) (any, error) {
		res, err := h.session.ApplyProfile(ctx, name)
		if err != nil {
			return nil, err
		}
		return responses.NewApplyResponse(res), res.Err()
	})
}

// HandleSelection handles GET /api/selection.
func (h *ProfileHandlers) HandleSelection(w http.ResponseWriter, r *http.Request) {
	respond(h.errorAdapter, w, r, http.StatusOK, responses.SelectionResponse{Selected: h.session.SelectedProfile()})
}
