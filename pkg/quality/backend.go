// Package quality owns the per-zone quality state that a foveation backend
// renders with: shading-rate presets, custom per-zone rates, foveation
// pattern radii and the gaze direction.
//
// State only reaches the backend through a Session, and only while that
// session is Ready. Every mutation is followed in the same call by
// EventUpdateGaze, which tells the backend to apply pending changes.
package quality

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/teslashibe/go-foveate/pkg/zone"
)

// Event is an opaque render-thread command understood by the backend.
type Event int

const (
	// EventEnable applies the configured pattern to subsequent draws.
	EventEnable Event = iota
	// EventDisable removes the pattern.
	EventDisable
	// EventUpdateGaze applies pending configuration and the latest gaze.
	EventUpdateGaze
)

// String returns the event name.
func (e Event) String() string {
	switch e {
	case EventEnable:
		return "enable"
	case EventDisable:
		return "disable"
	case EventUpdateGaze:
		return "update-gaze"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

// Backend is the command set of a foveated shading implementation.
type Backend interface {
	// OpenSession prepares the backend for a camera with the given vertical
	// field of view (degrees) and aspect ratio. It returns false when the
	// device or driver is unavailable.
	OpenSession(fovY, aspect float64) bool

	// CloseSession releases everything OpenSession acquired.
	CloseSession()

	SetRatePreset(p RatePreset)
	SetPatternPreset(p PatternPreset)
	SetZoneRate(z zone.Zone, rate ShadingRate)
	SetZoneRadii(z zone.Zone, rx, ry float64)

	// SetGazeDirection stores a normalized view-space gaze direction.
	SetGazeDirection(dir mgl32.Vec3)

	// Issue runs an event on the render thread.
	Issue(ev Event)
}
