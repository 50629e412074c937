package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"git.home.luguber.info/inful/accctl/internal/acc"
	"git.home.luguber.info/inful/accctl/internal/foundation/errors"
	"git.home.luguber.info/inful/accctl/internal/schedule"
	"git.home.luguber.info/inful/accctl/internal/server/responses"
)

// ScheduleHandlers serves djs jobs.
type ScheduleHandlers struct {
	manager      *schedule.Manager
	errorAdapter *errors.HTTPErrorAdapter
}

// NewScheduleHandlers creates schedule handlers.
func NewScheduleHandlers(m *schedule.Manager, adapter *errors.HTTPErrorAdapter) *ScheduleHandlers {
	return &ScheduleHandlers{manager: m, errorAdapter: adapter}
}

// HandleList handles GET /api/schedules. ?class=once|daily restricts the listing.
func (h *ScheduleHandlers) HandleList(w http.ResponseWriter, r *http.Request) {
	var items []schedule.Schedule
	if class := r.URL.Query().Get("class"); class != "" {
		once, err := schedule.ParseClass(class)
		if err != nil {
			h.errorAdapter.WriteErrorResponse(w, r, err)
			return
		}
		items = h.manager.List(r.Context(), once)
	} else {
		items = h.manager.ListAll(r.Context())
	}
	if items == nil {
		items = []schedule.Schedule{}
	}
	respond(h.errorAdapter, w, r, http.StatusOK, responses.ScheduleListResponse{Schedules: items})
}

type scheduleRequest struct {
	ExecuteOnce bool        `json:"executeOnce"`
	Hour        int         `json:"hour"`
	Minute      int         `json:"minute"`
	Command     string      `json:"command,omitempty"`
	Commands    []string    `json:"commands,omitempty"`
	Config      *acc.Config `json:"config,omitempty"`
}

// HandleCreate handles POST /api/schedules. Exactly one of command, commands or config is used.
func (h *ScheduleHandlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	ctx := r.Context()
	var (
		ok  bool
		err error
	)
	switch {
	case req.Config != nil:
		if err = req.Config.Validate(); err == nil {
			ok, err = h.manager.AddConfig(ctx, req.ExecuteOnce, req.Hour, req.Minute, *req.Config)
		}
	case len(req.Commands) > 0:
		ok, err = h.manager.AddCommands(ctx, req.ExecuteOnce, req.Hour, req.Minute, req.Commands)
	case req.Command != "":
		ok, err = h.manager.Add(ctx, req.ExecuteOnce, req.Hour, req.Minute, req.Command)
	default:
		err = errors.ValidationError("schedule needs a command, commands or config").Build()
	}
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	if !ok {
		h.errorAdapter.WriteErrorResponse(w, r, errors.ExecutionError("djs rejected the job").
			WithContext("id", schedule.ID(req.Hour, req.Minute)).Build())
		return
	}

	created, found := h.manager.Find(req.ExecuteOnce, schedule.ID(req.Hour, req.Minute))
	if !found {
		created = schedule.Schedule{ID: schedule.ID(req.Hour, req.Minute), ExecuteOnce: req.ExecuteOnce, Hour: req.Hour, Minute: req.Minute}
	}
	respond(h.errorAdapter, w, r, http.StatusCreated, created)
}

// HandleUpdate handles PUT /api/schedules/{class}/{id}: only the command changes.
func (h *ScheduleHandlers) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var body struct {
		Command string `json:"command"`
	}
	if err := decodeJSON(r, &body); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	if body.Command == "" {
		h.errorAdapter.WriteErrorResponse(w, r, errors.ValidationError("command is required").Build())
		return
	}

	edited, err := h.manager.EditCommand(r.Context(), s, body.Command)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	if !edited {
		h.errorAdapter.WriteErrorResponse(w, r, errors.ExecutionError("djs rejected the job").WithContext("id", s.ID).Build())
		return
	}
	s.Command = body.Command
	respond(h.errorAdapter, w, r, http.StatusOK, s)
}

// HandleDelete handles DELETE /api/schedules/{class}/{id}.
func (h *ScheduleHandlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	once, err := schedule.ParseClass(chi.URLParam(r, "class"))
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")
	deleted, err := h.manager.Delete(r.Context(), once, id)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	if !deleted {
		h.errorAdapter.WriteErrorResponse(w, r, errors.ExecutionError("djs could not cancel the job").WithContext("id", id).Build())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// lookup resolves {class}/{id}, refreshing the cache once before giving up.
func (h *ScheduleHandlers) lookup(w http.ResponseWriter, r *http.Request) (schedule.Schedule, bool) {
	once, err := schedule.ParseClass(chi.URLParam(r, "class"))
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return schedule.Schedule{}, false
	}
	id := chi.URLParam(r, "id")
	s, found := h.manager.Find(once, id)
	if !found {
		h.manager.Refresh(r.Context())
		s, found = h.manager.Find(once, id)
	}
	if !found {
		h.errorAdapter.WriteErrorResponse(w, r, errors.NotFoundError("schedule").
			WithContext("class", schedule.ClassName(once)).
			WithContext("id", id).Build())
		return schedule.Schedule{}, false
	}
	return s, true
}
