// Package scene defines the narrow interface the job runner consumes from
// the scene/animation subsystem, plus a synthetic driver used when the
// service runs without a real engine attached.
package scene

import "image"

// Driver is the adapter to the scene subsystem. All methods are called from
// the main loop goroutine only.
type Driver interface {
	// SetRenderTarget attaches an offscreen surface of the given size.
	SetRenderTarget(width, height int) error
	// ReleaseRenderTarget detaches the surface and frees its buffers.
	// Safe to call when no target is attached.
	ReleaseRenderTarget()

	// ApplyTexture applies a decoded image to the wall material slot.
	ApplyTexture(img image.Image) error

	// LoadRoute replaces the active route with the given derived-move
	// document.
	LoadRoute(route []byte) error
	// Play starts playback of the loaded route.
	Play()
	// Stop halts any playback in progress.
	Stop()

	// SubscribeRouteCompleted registers a one-shot notification for the end
	// of the current playback. The returned cancel releases the
	// subscription and must be called on every exit path.
	SubscribeRouteCompleted() (<-chan struct{}, func())

	// CaptureFrame renders the scene into the offscreen target and returns
	// its width*height*4 RGBA bytes.
	CaptureFrame() ([]byte, error)
}
