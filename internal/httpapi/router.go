// Package httpapi wires the control server: router, middleware stack, and
// the listener group.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"cruxcast/internal/httpapi/handlers"
	"cruxcast/internal/httpkit"
	"cruxcast/internal/job"
	"cruxcast/internal/pkg/logger"
	"cruxcast/internal/pkg/middleware"
)

type Deps struct {
	Runner handlers.JobRunner
	Store  *job.Store
	// AuthToken enables bearer auth on every route when non-empty.
	AuthToken string
	Log       *logger.Logger
}

// NewRouter builds the control server handler. Paths are matched
// case-insensitively and unknown paths or methods get a JSON 404.
func NewRouter(d Deps) http.Handler {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}

	r := chi.NewRouter()

	r.Use(middleware.NormalizePath)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(log))
	r.Use(middleware.Recovery(log))
	r.Use(middleware.BearerAuth(d.AuthToken))

	h := handlers.New(handlers.Deps{
		Runner: d.Runner,
		Store:  d.Store,
		Log:    log,
	})

	r.Get("/health", h.Health)
	r.Get("/status", h.Status)
	r.Post("/render", h.Render)

	notFound := func(w http.ResponseWriter, _ *http.Request) {
		httpkit.WriteError(w, http.StatusNotFound, "not-found")
	}
	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	return r
}
