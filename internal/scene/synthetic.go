package scene

import (
	"encoding/json"
	"fmt"
	"image"
	"sync"
	"time"
)

// syntheticMove mirrors the derived-move wire shape; only timing matters
// here.
type syntheticMove struct {
	Limb        string  `json:"limb"`
	HoldID      string  `json:"holdId"`
	HoldSeconds float64 `json:"holdSeconds"`
}

type syntheticRoute struct {
	Moves []syntheticMove `json:"moves"`
}

// Synthetic is a stand-in scene driver: playback is a timer over the summed
// move durations and frames are flat tinted RGBA buffers. It lets the
// service run end to end without the engine-side scene subsystem.
type Synthetic struct {
	mu sync.Mutex

	width, height int
	hasTarget     bool

	tint [3]uint8

	duration time.Duration
	playing  bool
	timer    *time.Timer
	frame    uint64

	nextSub int
	subs    map[int]chan struct{}
}

// NewSynthetic creates an idle synthetic driver.
func NewSynthetic() *Synthetic {
	return &Synthetic{
		tint: [3]uint8{0x30, 0x60, 0x90},
		subs: make(map[int]chan struct{}),
	}
}

// SetRenderTarget attaches an offscreen surface of the given size.
func (s *Synthetic) SetRenderTarget(width, height int) error {
	if width < 1 || height < 1 {
		return fmt.Errorf("invalid render target size %dx%d", width, height)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width, s.height = width, height
	s.hasTarget = true
	return nil
}

// ReleaseRenderTarget detaches the surface.
func (s *Synthetic) ReleaseRenderTarget() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hasTarget = false
	s.width, s.height = 0, 0
}

// ApplyTexture derives the frame tint from the texture's top-left pixel.
func (s *Synthetic) ApplyTexture(img image.Image) error {
	if img == nil {
		return fmt.Errorf("nil texture image")
	}
	r, g, b, _ := img.At(img.Bounds().Min.X, img.Bounds().Min.Y).RGBA()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tint = [3]uint8{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)}
	return nil
}

// LoadRoute parses the derived-move document and records its total
// duration.
func (s *Synthetic) LoadRoute(route []byte) error {
	var doc syntheticRoute
	if err := json.Unmarshal(route, &doc); err != nil {
		return fmt.Errorf("invalid route document: %w", err)
	}
	if len(doc.Moves) == 0 {
		return fmt.Errorf("route has no moves")
	}

	var total float64
	for _, m := range doc.Moves {
		if m.HoldSeconds > 0 {
			total += m.HoldSeconds
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.duration = time.Duration(total * float64(time.Second))
	return nil
}

// Play starts the playback timer.
func (s *Synthetic) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
	}
	s.playing = true
	s.timer = time.AfterFunc(s.duration, s.complete)
}

// Stop halts playback without signaling completion.
func (s *Synthetic) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.playing = false
}

func (s *Synthetic) complete() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.playing = false
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
}

// SubscribeRouteCompleted registers a one-shot completion channel.
func (s *Synthetic) SubscribeRouteCompleted() (<-chan struct{}, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan struct{})
	s.subs[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
	return ch, cancel
}

// CaptureFrame returns a flat tinted RGBA frame with a per-frame brightness
// ramp so consecutive frames differ.
func (s *Synthetic) CaptureFrame() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasTarget {
		return nil, fmt.Errorf("no render target attached")
	}

	shade := uint8(s.frame % 64)
	s.frame++

	buf := make([]byte, s.width*s.height*4)
	for i := 0; i < len(buf); i += 4 {
		buf[i] = s.tint[0] + shade
		buf[i+1] = s.tint[1] + shade
		buf[i+2] = s.tint[2] + shade
		buf[i+3] = 0xff
	}
	return buf, nil
}
