// Package handlers implements the control server endpoints.
package handlers

import (
	"cruxcast/internal/job"
	"cruxcast/internal/pkg/logger"
)

// JobRunner is the submission surface the control server needs. Enqueue
// must return without waiting for execution.
type JobRunner interface {
	Enqueue(p *job.Payload)
	Busy() bool
}

type Deps struct {
	Runner JobRunner
	Store  *job.Store
	Log    *logger.Logger
}

type Handler struct {
	runner JobRunner
	store  *job.Store
	log    *logger.Logger
}

func New(d Deps) *Handler {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	return &Handler{
		runner: d.Runner,
		store:  d.Store,
		log:    log.WithComponent("httpapi"),
	}
}
