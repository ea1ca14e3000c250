// Package runner owns the single-job lifecycle: admission, the staged
// state machine, and finalization. All mutable job state lives on the main
// loop goroutine; only the busy flag is shared for /health reads.
package runner

import (
	"context"
	"image"
	"sync/atomic"

	"cruxcast/internal/encoder"
	"cruxcast/internal/job"
	"cruxcast/internal/mainloop"
	"cruxcast/internal/pkg/logger"
	"cruxcast/internal/scene"
)

// MediaClient is the outbound HTTP surface the runner needs.
type MediaClient interface {
	FetchTexture(ctx context.Context, url string) (image.Image, error)
	Upload(ctx context.Context, url, path string) error
}

// Deps holds runner collaborators.
type Deps struct {
	Loop     *mainloop.Loop
	Store    *job.Store
	Driver   scene.Driver
	Encoders encoder.Factory
	Media    MediaClient
	// OutputDir receives finished render files.
	OutputDir string
	// Defaults fill omitted payload capture fields.
	Defaults job.Defaults
	Log      *logger.Logger
}

// Runner is the single-active-job orchestrator.
type Runner struct {
	loop       *mainloop.Loop
	store      *job.Store
	driver     scene.Driver
	newEncoder encoder.Factory
	media      MediaClient
	outputDir  string
	defaults   job.Defaults
	log        *logger.Logger

	// active is the ActiveJob slot. Written only from the main loop; read
	// from HTTP workers via Busy.
	active atomic.Pointer[string]
}

// New creates a runner.
func New(d Deps) *Runner {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	return &Runner{
		loop:       d.Loop,
		store:      d.Store,
		driver:     d.Driver,
		newEncoder: d.Encoders,
		media:      d.Media,
		outputDir:  d.OutputDir,
		defaults:   d.Defaults,
		log:        log.WithComponent("runner"),
	}
}

// Busy reports whether the ActiveJob slot is occupied.
func (r *Runner) Busy() bool {
	return r.active.Load() != nil
}

// Enqueue hands a validated payload to the main loop for admission and
// returns immediately. Acceptance is decoupled from execution; the outcome
// is observable only through the status store.
func (r *Runner) Enqueue(p *job.Payload) {
	r.loop.Dispatch(func() {
		r.admit(p)
	})
}

// admit runs on the main loop goroutine.
func (r *Runner) admit(p *job.Payload) {
	log := r.log.WithJobID(p.JobID)

	if r.active.Load() != nil {
		r.store.SetTerminal(p.JobID, job.StateFailed, "busy")
		log.Warn("job rejected, runner busy")
		return
	}
	if len(p.Route) == 0 {
		r.store.SetTerminal(p.JobID, job.StateFailed, "missing route")
		log.Warn("job rejected, empty route")
		return
	}

	p.Normalize(r.defaults)

	id := p.JobID
	r.active.Store(&id)
	r.store.SetQueued(p.JobID)
	log.Info("job admitted",
		"size", p.ImageWidth*p.ImageHeight,
		"fps", p.FPS,
		"holds", len(p.Route),
	)

	t := newTask(r, p, log)
	r.loop.SetStep(t.Step)
}

// release clears the ActiveJob slot. Runs on the main loop goroutine.
func (r *Runner) release() {
	r.active.Store(nil)
}
