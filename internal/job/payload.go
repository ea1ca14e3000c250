// Package job defines the render-job payload, derived route moves, and the
// in-memory status store.
package job

import (
	"encoding/json"

	"cruxcast/internal/pkg/errors"
)

// Validation failures for POST /render, in check order. The message doubles
// as the wire error code.
var (
	ErrEmptyBody    = errors.Validation("empty-body")
	ErrInvalidJSON  = errors.Validation("invalid-json")
	ErrMissingJobID = errors.Validation("missing-job-id")
	ErrMissingRoute = errors.Validation("missing-route-json")
)

// HoldEntry is one hold on the submitted route, in climb order.
type HoldEntry struct {
	ID          string  `json:"id"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Kind        string  `json:"kind,omitempty"`
	HoldSeconds float64 `json:"holdSeconds,omitempty"`
}

// Payload is one render job submission.
type Payload struct {
	JobID           string      `json:"jobId"`
	Route           []HoldEntry `json:"route"`
	TextureURL      string      `json:"textureUrl,omitempty"`
	UploadURL       string      `json:"uploadUrl,omitempty"`
	ImageWidth      int         `json:"imageWidth,omitempty"`
	ImageHeight     int         `json:"imageHeight,omitempty"`
	FPS             int         `json:"fps,omitempty"`
	DurationPadding float64     `json:"durationPadding,omitempty"`
}

// Defaults are the capture parameters applied when a payload omits them.
type Defaults struct {
	Width           int
	Height          int
	FPS             int
	DurationPadding float64
}

// Parse validates a request body and returns the decoded payload. Checks
// run in the order the control server reports them.
func Parse(body []byte) (*Payload, error) {
	if len(body) == 0 {
		return nil, ErrEmptyBody
	}

	var p Payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, ErrInvalidJSON
	}
	if p.JobID == "" {
		return nil, ErrMissingJobID
	}
	if len(p.Route) == 0 {
		return nil, ErrMissingRoute
	}
	return &p, nil
}

// Normalize fills omitted fields from defaults and coerces out-of-range
// values.
func (p *Payload) Normalize(d Defaults) {
	if p.ImageWidth < 1 {
		p.ImageWidth = max(d.Width, 1)
	}
	if p.ImageHeight < 1 {
		p.ImageHeight = max(d.Height, 1)
	}
	if p.FPS < 1 {
		p.FPS = d.FPS
	}
	if p.FPS < 1 {
		p.FPS = 30
	}
	if p.DurationPadding < 0 {
		p.DurationPadding = 0
	}
	if p.DurationPadding == 0 {
		p.DurationPadding = d.DurationPadding
	}
	for i := range p.Route {
		if p.Route[i].HoldSeconds <= 0 {
			p.Route[i].HoldSeconds = defaultHoldSeconds
		}
	}
}

const defaultHoldSeconds = 0.5
