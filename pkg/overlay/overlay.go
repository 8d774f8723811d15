// Package overlay draws the foveation zones around the gaze point.
//
// The Visualizer holds a normalized centre and two radii pairs and can
// render them as a PNG for the dashboard. Coordinates follow the usual
// normalized screen convention: x and y in [-1, 1], y up.
package overlay

import (
	"fmt"
	"io"
	"sync"

	"github.com/gogpu/gg"
	"github.com/teslashibe/go-foveate/pkg/gaze"
	"github.com/teslashibe/go-foveate/pkg/zone"
)

// Default viewport and zone radii.
const (
	DefaultWidth  = 1280
	DefaultHeight = 720
)

var (
	innerColor  = gg.RGB(1, 0, 0)
	middleColor = gg.RGB(0, 1, 0)
	gazeColor   = gg.RGB(1, 1, 1)
	background  = gg.RGB(0.08, 0.08, 0.1)
)

// State is the overlay geometry in normalized and pixel units.
// Pixel coordinates have their origin at the bottom left.
type State struct {
	Enabled        bool       `json:"enabled"`
	Width          int        `json:"width"`
	Height         int        `json:"height"`
	Center         [2]float64 `json:"center"`
	PixelCenter    [2]float64 `json:"pixel_center"`
	Inner          zone.Radii `json:"inner"`
	Middle         zone.Radii `json:"middle"`
	InnerDiameter  [2]float64 `json:"inner_diameter"`
	MiddleDiameter [2]float64 `json:"middle_diameter"`
}

// Visualizer tracks and renders the zone overlay. It is goroutine-safe.
type Visualizer struct {
	mu        sync.RWMutex
	enabled   bool
	width     int
	height    int
	center    gaze.Sample
	inner     zone.Radii
	middle    zone.Radii
	lineWidth float64
	listeners []func(State)
}

// New creates an enabled visualizer for a width x height viewport.
func New(width, height int) *Visualizer {
	if width <= 0 || height <= 0 {
		width, height = DefaultWidth, DefaultHeight
	}
	return &Visualizer{
		enabled:   true,
		width:     width,
		height:    height,
		inner:     zone.Radii{X: 0.25, Y: 0.25},
		middle:    zone.Radii{X: 0.33, Y: 0.33},
		lineWidth: 4,
	}
}

// OnChange registers fn to receive the new state after every change.
func (v *Visualizer) OnChange(fn func(State)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.listeners = append(v.listeners, fn)
}

func (v *Visualizer) changed() {
	v.mu.RLock()
	s := v.state()
	listeners := v.listeners
	v.mu.RUnlock()

	for _, fn := range listeners {
		fn(s)
	}
}

// SetCenter moves both ellipses to a normalized position.
func (v *Visualizer) SetCenter(s gaze.Sample) {
	v.mu.Lock()
	if v.center == s {
		v.mu.Unlock()
		return
	}
	v.center = s
	v.mu.Unlock()
	v.changed()
}

// UpdateRadii replaces the inner and middle radii.
func (v *Visualizer) UpdateRadii(inner, middle zone.Radii) {
	v.mu.Lock()
	v.inner, v.middle = inner, middle
	v.mu.Unlock()
	v.changed()
}

// SetEnabled shows or hides the overlay.
func (v *Visualizer) SetEnabled(enabled bool) {
	v.mu.Lock()
	v.enabled = enabled
	v.mu.Unlock()
	v.changed()
}

// Enabled reports whether the overlay is shown.
func (v *Visualizer) Enabled() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.enabled
}

// Resize sets the viewport in pixels. Non-positive sizes are ignored.
func (v *Visualizer) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	v.mu.Lock()
	v.width, v.height = width, height
	v.mu.Unlock()
	v.changed()
}

// State returns the current geometry.
func (v *Visualizer) State() State {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state()
}

func (v *Visualizer) state() State {
	w, h := float64(v.width), float64(v.height)
	return State{
		Enabled: v.enabled,
		Width:   v.width,
		Height:  v.height,
		Center:  [2]float64{v.center.X, v.center.Y},
		PixelCenter: [2]float64{
			(v.center.X + 1) / 2 * w,
			(v.center.Y + 1) / 2 * h,
		},
		Inner:          v.inner,
		Middle:         v.middle,
		InnerDiameter:  [2]float64{w * v.inner.X * 2, h * v.inner.Y * 2},
		MiddleDiameter: [2]float64{w * v.middle.X * 2, h * v.middle.Y * 2},
	}
}

// Render writes the overlay as a PNG. A disabled overlay renders the
// background only.
func (v *Visualizer) Render(w io.Writer) error {
	s := v.State()

	dc := gg.NewContext(s.Width, s.Height)
	defer dc.Close()

	dc.ClearWithColor(background)

	if s.Enabled {
		// Flip to image coordinates, origin top left.
		cx := s.PixelCenter[0]
		cy := float64(s.Height) - s.PixelCenter[1]

		dc.SetLineWidth(v.lineWidth)
		for _, e := range []struct {
			diameter [2]float64
			color    gg.RGBA
		}{
			{s.MiddleDiameter, middleColor},
			{s.InnerDiameter, innerColor},
		} {
			dc.SetRGBA(e.color.R, e.color.G, e.color.B, e.color.A)
			dc.DrawEllipse(cx, cy, e.diameter[0]/2, e.diameter[1]/2)
			if err := dc.Stroke(); err != nil {
				return fmt.Errorf("stroke zone: %w", err)
			}
		}

		dc.SetRGBA(gazeColor.R, gazeColor.G, gazeColor.B, gazeColor.A)
		dc.DrawCircle(cx, cy, 5)
		if err := dc.Fill(); err != nil {
			return fmt.Errorf("fill gaze point: %w", err)
		}
	}

	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encode overlay: %w", err)
	}
	return nil
}
