package handlers

import (
	"net/http"

	"cruxcast/internal/httpkit"
	"cruxcast/internal/job"
)

// Status serves the current record for one job id. An id the store has
// never seen still gets a 200 with a synthetic unknown record, so pollers
// cannot distinguish "not yet admitted" from "never submitted" by status
// code alone.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	if h.runner == nil {
		httpkit.WriteError(w, http.StatusServiceUnavailable, "runner-unavailable")
		return
	}

	// Path normalization does not touch the query string, so accept the
	// documented camel-case name and the lower-case variant clients send.
	jobID := r.URL.Query().Get("jobId")
	if jobID == "" {
		jobID = r.URL.Query().Get("jobid")
	}

	st, ok := h.store.Get(jobID)
	if !ok {
		st = job.Unknown(jobID)
	}
	httpkit.WriteJSON(w, http.StatusOK, st)
}
