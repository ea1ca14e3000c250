package handlers

import (
	"io"
	"net/http"

	"cruxcast/internal/httpkit"
	"cruxcast/internal/job"
	"cruxcast/internal/pkg/errors"
)

// maxRenderBody bounds the request body read; routes are small.
const maxRenderBody = 1 << 20

// Render accepts a job submission. On success the payload is handed to the
// runner and a 202 is returned before the job does any work; whether the
// job actually runs (or is rejected busy) is observable only via /status.
func (h *Handler) Render(w http.ResponseWriter, r *http.Request) {
	log := h.log.FromContext(r.Context())

	if h.runner == nil {
		httpkit.WriteError(w, http.StatusServiceUnavailable, "runner-unavailable")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRenderBody))
	if err != nil {
		httpkit.WriteError(w, http.StatusBadRequest, "empty-body")
		return
	}

	p, err := job.Parse(body)
	if err != nil {
		log.Warn("render submission rejected", "reason", errors.GetCode(err))
		httpkit.WriteError(w, errors.GetHTTPStatus(err), validationCode(err))
		return
	}

	log.Info("render submission accepted", "job_id", p.JobID, "holds", len(p.Route))
	h.runner.Enqueue(p)

	httpkit.WriteJSON(w, http.StatusAccepted, map[string]string{
		"jobId":  p.JobID,
		"status": "queued",
	})
}

// validationCode extracts the wire error code from a parse failure.
func validationCode(err error) string {
	var e *errors.Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "invalid-json"
}
