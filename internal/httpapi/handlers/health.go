package handlers

import (
	"net/http"

	"cruxcast/internal/httpkit"
)

// Health reports whether the job slot is occupied.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "idle"
	if h.runner != nil && h.runner.Busy() {
		status = "busy"
	}
	httpkit.WriteJSON(w, http.StatusOK, map[string]string{"status": status})
}
