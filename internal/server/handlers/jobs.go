package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"git.home.luguber.info/inful/accctl/internal/foundation/errors"
	"git.home.luguber.info/inful/accctl/internal/server/responses"
	"git.home.luguber.info/inful/accctl/internal/worker"
)

// JobHandlers serves the status of dispatched jobs.
type JobHandlers struct {
	jobs         *worker.Dispatcher
	errorAdapter *errors.HTTPErrorAdapter
}

// NewJobHandlers creates job handlers.
func NewJobHandlers(jobs *worker.Dispatcher, adapter *errors.HTTPErrorAdapter) *JobHandlers {
	return &JobHandlers{jobs: jobs, errorAdapter: adapter}
}

// HandleGet handles GET /api/jobs/{id}.
func (h *JobHandlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobs.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	respond(h.errorAdapter, w, r, http.StatusOK, job)
}

// dispatcher runs side-effecting work in the background on behalf of a request.
type dispatcher struct {
	jobs         *worker.Dispatcher
	errorAdapter *errors.HTTPErrorAdapter
}

// run dispatches fn. Without ?wait it answers 202 with the job id; with it,
// the finished job is returned, or the running one if the client gives up first.
func (d dispatcher) run(w http.ResponseWriter, r *http.Request, kind string, fn worker.Func) {
	job, err := d.jobs.Dispatch(kind, fn)
	if err != nil {
		d.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	if !wantsWait(r) {
		respond(d.errorAdapter, w, r, http.StatusAccepted, responses.JobAcceptedResponse{Status: "accepted", JobID: job.ID})
		return
	}

	done, err := d.jobs.Wait(r.Context(), job.ID)
	if err != nil {
		respond(d.errorAdapter, w, r, http.StatusAccepted, responses.JobAcceptedResponse{Status: "accepted", JobID: job.ID})
		return
	}
	respond(d.errorAdapter, w, r, http.StatusOK, done)
}
