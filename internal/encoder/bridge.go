// Package encoder streams raw frames into an external ffmpeg process that
// writes the finished video file.
package encoder

import (
	"bytes"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"cruxcast/internal/pkg/errors"
	"cruxcast/internal/pkg/logger"
)

// Spec describes one capture session.
type Spec struct {
	Width      int
	Height     int
	FPS        int
	OutputPath string
}

// FrameSize returns the byte length of one raw RGBA frame.
func (s Spec) FrameSize() int {
	return s.Width * s.Height * 4
}

// Encoder is the contract the job runner drives during capture.
type Encoder interface {
	// Start launches the subprocess.
	Start() error
	// WriteFrame pushes one raw frame to the subprocess's stdin. The call
	// blocks while the pipe is full; that backpressure bounds memory.
	WriteFrame(frame []byte) error
	// Finalize closes stdin, waits for exit, and fails on a nonzero code.
	Finalize() error
	// Abort kills a live subprocess. Safe on every exit path, including
	// after Finalize, and tolerates a failed kill.
	Abort()
}

// Factory builds an encoder for a capture session. The runner takes a
// factory so tests can substitute a fake.
type Factory func(spec Spec) Encoder

// Bridge drives one ffmpeg subprocess reading rawvideo on stdin.
type Bridge struct {
	binary string
	spec   Spec
	args   []string
	log    *logger.Logger

	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stderr  bytes.Buffer
	started bool
	waited  bool
}

// NewBridge creates a bridge for the given binary and capture spec.
func NewBridge(binary string, spec Spec, log *logger.Logger) *Bridge {
	if log == nil {
		log = logger.NewDefault()
	}
	return &Bridge{
		binary: binary,
		spec:   spec,
		args:   buildArgs(spec),
		log:    log.WithComponent("encoder"),
	}
}

// NewFactory returns a Factory producing real ffmpeg bridges.
func NewFactory(binary string, log *logger.Logger) Factory {
	return func(spec Spec) Encoder {
		return NewBridge(binary, spec, log)
	}
}

// Start launches the encoder subprocess.
func (b *Bridge) Start() error {
	cmd := exec.Command(b.binary, b.args...)
	cmd.Stdout = io.Discard
	cmd.Stderr = &b.stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return errors.WrapWithCode(err, errors.CodeCapture, "encoder.start", "failed to open encoder stdin")
	}

	if err := cmd.Start(); err != nil {
		return errors.WrapWithCode(err, errors.CodeCapture, "encoder.start", "failed to start encoder process")
	}

	b.cmd = cmd
	b.stdin = stdin
	b.started = true
	b.log.Debug("encoder process started",
		"binary", b.binary,
		"size", fmt.Sprintf("%dx%d", b.spec.Width, b.spec.Height),
		"fps", b.spec.FPS,
		"output", b.spec.OutputPath,
	)
	return nil
}

// WriteFrame streams one raw frame to the subprocess.
func (b *Bridge) WriteFrame(frame []byte) error {
	if !b.started {
		return errors.New(errors.CodeCapture, "encoder not started")
	}
	if want := b.spec.FrameSize(); len(frame) != want {
		return errors.Newf(errors.CodeCapture, "frame size %d, expected %d", len(frame), want)
	}

	if _, err := b.stdin.Write(frame); err != nil {
		return errors.WrapWithCode(err, errors.CodeCapture, "encoder.write", "frame write failed")
	}
	return nil
}

// Finalize signals end-of-stream and checks the encoder's exit code.
func (b *Bridge) Finalize() error {
	if !b.started {
		return errors.New(errors.CodeCapture, "encoder not started")
	}

	_ = b.stdin.Close()
	err := b.cmd.Wait()
	b.waited = true
	if err != nil {
		return errors.WrapWithCode(err, errors.CodeCapture, "encoder.finalize",
			fmt.Sprintf("encoder exited abnormally: %s", stderrTail(&b.stderr)))
	}
	return nil
}

// Abort forcibly terminates a still-live subprocess. Kill failures (already
// exited, insufficient permission) are swallowed.
func (b *Bridge) Abort() {
	if !b.started || b.waited {
		return
	}

	_ = b.stdin.Close()
	if b.cmd.Process != nil {
		if err := b.cmd.Process.Kill(); err != nil {
			b.log.Debug("encoder kill failed", "error", err.Error())
		}
	}
	_ = b.cmd.Wait()
	b.waited = true
}

// buildArgs assembles the ffmpeg invocation: raw RGBA frames on stdin at a
// fixed size and rate, H.264 mp4 out.
func buildArgs(spec Spec) []string {
	return []string{
		"-hide_banner",
		"-y",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", spec.Width, spec.Height),
		"-r", strconv.Itoa(spec.FPS),
		"-i", "-",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-movflags", "+faststart",
		spec.OutputPath,
	}
}

// stderrTail returns the last portion of captured stderr for diagnostics.
func stderrTail(buf *bytes.Buffer) string {
	s := strings.TrimSpace(buf.String())
	const limit = 512
	if len(s) > limit {
		s = s[len(s)-limit:]
	}
	if s == "" {
		return "no stderr output"
	}
	return s
}
