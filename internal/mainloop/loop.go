// Package mainloop provides the single goroutine that owns scene and
// encoder state. HTTP workers hand work to it through Dispatch; nothing
// else crosses the boundary.
package mainloop

import (
	"context"
	"time"

	"cruxcast/internal/pkg/logger"
)

// StepFunc advances the loop's current cooperative task by one tick. It
// returns true when the task is finished.
type StepFunc func() bool

// Loop drains dispatched actions and steps the installed task once per
// tick. SetStep and SetInterval must only be called from the loop goroutine
// itself, i.e. from inside a dispatched action or a step.
type Loop struct {
	log             *logger.Logger
	actions         chan func()
	defaultInterval time.Duration

	// loop-goroutine state
	ticker *time.Ticker
	step   StepFunc
}

// New creates a loop ticking at the given idle interval.
func New(log *logger.Logger, interval time.Duration) *Loop {
	if log == nil {
		log = logger.NewDefault()
	}
	if interval <= 0 {
		interval = 33 * time.Millisecond
	}
	return &Loop{
		log:             log.WithComponent("mainloop"),
		actions:         make(chan func(), 256),
		defaultInterval: interval,
	}
}

// Dispatch enqueues an action for the loop goroutine. Safe for concurrent
// use; blocks only if the queue backlog is full.
func (l *Loop) Dispatch(fn func()) {
	l.actions <- fn
}

// Run drains and ticks until the context is canceled. It owns the calling
// goroutine.
func (l *Loop) Run(ctx context.Context) error {
	l.ticker = time.NewTicker(l.defaultInterval)
	defer l.ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.log.Info("main loop stopping")
			return ctx.Err()
		case <-l.ticker.C:
			l.drain()
			if l.step != nil && l.step() {
				l.step = nil
				l.SetInterval(l.defaultInterval)
			}
		}
	}
}

// SetStep installs the loop's current task. Installing over an existing
// task replaces it.
func (l *Loop) SetStep(step StepFunc) {
	l.step = step
}

// SetInterval retunes the tick period, e.g. to a job's frame interval for
// the duration of a capture.
func (l *Loop) SetInterval(d time.Duration) {
	if d <= 0 {
		d = l.defaultInterval
	}
	if l.ticker != nil {
		l.ticker.Reset(d)
	}
}

// drain executes every queued action. A panicking action is logged and
// must not stop the drain of subsequent actions.
func (l *Loop) drain() {
	for {
		select {
		case fn := <-l.actions:
			l.safeRun(fn)
		default:
			return
		}
	}
}

func (l *Loop) safeRun(fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			l.log.Error("dispatched action panicked", "panic", rec)
		}
	}()
	fn()
}
