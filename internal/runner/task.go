package runner

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"cruxcast/internal/encoder"
	"cruxcast/internal/job"
	"cruxcast/internal/pkg/logger"
)

// stage indexes the task state machine.
type stage int

const (
	stageDownload stage = iota
	stageDownloadWait
	stageConfigure
	stageRender
	stageIdlePadding
	stageUpload
	stageUploadWait
)

type fetchResult struct {
	img image.Image
	err error
}

// task is one job's cooperative state machine. Step is invoked once per
// loop tick; network waits happen on helper goroutines polled through
// buffered channels so the loop never blocks on I/O.
type task struct {
	r   *Runner
	p   *job.Payload
	log *logger.Logger
	ctx context.Context

	stage   stage
	padding time.Duration

	fetchCh chan fetchResult
	texture image.Image

	enc        encoder.Encoder
	outputPath string

	routeDone     <-chan struct{}
	unsubscribe   func()
	routeFinished bool
	finishedAt    time.Time

	idleStart time.Time

	uploadCh chan error
}

func newTask(r *Runner, p *job.Payload, log *logger.Logger) *task {
	return &task{
		r:       r,
		p:       p,
		log:     log,
		ctx:     context.Background(),
		stage:   stageDownload,
		padding: time.Duration(p.DurationPadding * float64(time.Second)),
	}
}

// Step advances the job by one tick. A panic in any stage still finalizes,
// so the system can never be left permanently busy.
func (t *task) Step() (done bool) {
	defer func() {
		if rec := recover(); rec != nil {
			t.log.Error("job stage panicked", "panic", rec, "stage", int(t.stage))
			done = t.finalize(job.StateFailed, "internal error")
		}
	}()
	return t.step()
}

func (t *task) step() bool {
	switch t.stage {
	case stageDownload:
		return t.stepDownload()
	case stageDownloadWait:
		return t.stepDownloadWait()
	case stageConfigure:
		return t.stepConfigure()
	case stageRender:
		return t.stepRender()
	case stageIdlePadding:
		return t.stepIdlePadding()
	case stageUpload:
		return t.stepUpload()
	case stageUploadWait:
		return t.stepUploadWait()
	}
	return t.finalize(job.StateFailed, "internal error")
}

func (t *task) stepDownload() bool {
	t.r.store.SetRunning(t.p.JobID, job.StageDownloading)

	if t.p.TextureURL == "" {
		t.stage = stageConfigure
		return false
	}

	t.fetchCh = make(chan fetchResult, 1)
	go func(url string) {
		img, err := t.r.media.FetchTexture(t.ctx, url)
		t.fetchCh <- fetchResult{img: img, err: err}
	}(t.p.TextureURL)

	t.stage = stageDownloadWait
	return false
}

func (t *task) stepDownloadWait() bool {
	select {
	case res := <-t.fetchCh:
		if res.err != nil {
			return t.finalize(job.StateFailed, res.err.Error())
		}
		t.texture = res.img
		t.stage = stageConfigure
	default:
		// still fetching
	}
	return false
}

func (t *task) stepConfigure() bool {
	t.r.store.SetRunning(t.p.JobID, job.StageConfiguring)

	if t.r.driver == nil {
		t.log.Warn("no scene driver attached, idling for padding")
		t.idleStart = time.Now()
		t.stage = stageIdlePadding
		return false
	}

	routeJSON, err := job.RouteJSON(t.p.Route)
	if err != nil {
		return t.finalize(job.StateFailed, "route encode failed: "+err.Error())
	}

	t.r.driver.Stop()
	if err := t.r.driver.SetRenderTarget(t.p.ImageWidth, t.p.ImageHeight); err != nil {
		return t.finalize(job.StateFailed, "capture failed: "+err.Error())
	}
	if t.texture != nil {
		if err := t.r.driver.ApplyTexture(t.texture); err != nil {
			return t.finalize(job.StateFailed, "texture apply failed: "+err.Error())
		}
	}
	if err := t.r.driver.LoadRoute(routeJSON); err != nil {
		return t.finalize(job.StateFailed, "route load failed: "+err.Error())
	}

	t.routeDone, t.unsubscribe = t.r.driver.SubscribeRouteCompleted()
	t.r.driver.Play()

	if err := os.MkdirAll(t.r.outputDir, 0o755); err != nil {
		return t.finalize(job.StateFailed, "capture failed: "+err.Error())
	}
	t.outputPath = filepath.Join(t.r.outputDir, outputName(t.p.JobID))

	t.enc = t.r.newEncoder(encoder.Spec{
		Width:      t.p.ImageWidth,
		Height:     t.p.ImageHeight,
		FPS:        t.p.FPS,
		OutputPath: t.outputPath,
	})
	if err := t.enc.Start(); err != nil {
		return t.finalize(job.StateFailed, "capture failed: "+err.Error())
	}

	t.r.store.SetRunning(t.p.JobID, job.StageRendering)
	t.r.loop.SetInterval(time.Second / time.Duration(t.p.FPS))
	t.stage = stageRender
	return false
}

// stepRender drives exactly one frame per tick, so capture stays locked to
// the clock that drives playback.
func (t *task) stepRender() bool {
	if !t.routeFinished {
		select {
		case <-t.routeDone:
			t.routeFinished = true
			t.finishedAt = time.Now()
			t.log.Debug("route completed, entering padding", "padding", t.padding.String())
		default:
		}
	}

	if t.routeFinished && time.Since(t.finishedAt) >= t.padding {
		return t.finishCapture()
	}

	frame, err := t.r.driver.CaptureFrame()
	if err != nil {
		return t.finalize(job.StateFailed, "capture failed: "+err.Error())
	}
	if err := t.enc.WriteFrame(frame); err != nil {
		return t.finalize(job.StateFailed, "capture failed: "+err.Error())
	}
	return false
}

func (t *task) finishCapture() bool {
	t.unsubscribe()
	t.unsubscribe = nil
	t.r.driver.Stop()

	if err := t.enc.Finalize(); err != nil {
		return t.finalize(job.StateFailed, "capture failed: "+err.Error())
	}
	if _, err := os.Stat(t.outputPath); err != nil {
		return t.finalize(job.StateFailed, "capture failed: no output file")
	}

	t.r.loop.SetInterval(0)
	t.stage = stageUpload
	return false
}

// stepIdlePadding is the degenerate path: no scene driver, so the stage
// waits out the padding and reports a capture failure instead of crashing.
func (t *task) stepIdlePadding() bool {
	if time.Since(t.idleStart) >= t.padding {
		return t.finalize(job.StateFailed, "capture failed: no scene driver")
	}
	return false
}

func (t *task) stepUpload() bool {
	t.r.store.SetRunning(t.p.JobID, job.StageUploading)

	if t.p.UploadURL == "" {
		return t.finalize(job.StateCompleted, "no upload url provided")
	}

	t.uploadCh = make(chan error, 1)
	go func(url, path string) {
		t.uploadCh <- t.r.media.Upload(t.ctx, url, path)
	}(t.p.UploadURL, t.outputPath)

	t.stage = stageUploadWait
	return false
}

func (t *task) stepUploadWait() bool {
	select {
	case err := <-t.uploadCh:
		if err != nil {
			return t.finalize(job.StateFailed, err.Error())
		}
		return t.finalize(job.StateCompleted, "upload complete")
	default:
		return false
	}
}

// finalize runs the unconditional teardown: scoped subscription released,
// scene stopped and detached, encoder killed if still alive, terminal
// status written once, slot released. Teardown errors never mask the
// reason already chosen.
func (t *task) finalize(state job.State, message string) bool {
	if t.unsubscribe != nil {
		t.unsubscribe()
		t.unsubscribe = nil
	}
	if t.r.driver != nil {
		t.r.driver.Stop()
		t.r.driver.ReleaseRenderTarget()
	}
	if t.enc != nil {
		t.enc.Abort()
	}

	t.r.store.SetTerminal(t.p.JobID, state, message)
	t.r.release()

	if state == job.StateFailed {
		t.log.Error("job failed", "reason", message)
	} else {
		t.log.Info("job completed", "message", message)
	}
	return true
}

// outputName builds a unique file name that still carries the job id for
// diagnostics.
func outputName(jobID string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, jobID)
	if safe == "" {
		safe = "job"
	}
	return fmt.Sprintf("%s_%s.mp4", safe, uuid.NewString()[:8])
}
