// Package region drives per-object detail and per-zone shading from the
// current gaze point.
//
// Each tick the Controller reads the active gaze provider, projects every
// tracked object into screen space, classifies it into a zone, and forces
// the matching level of detail. In shading modes the gaze direction is
// also pushed to the quality profile, and the debug overlay follows the
// gaze with its own axis convention.
package region

import (
	"errors"
	"fmt"
	"time"

	"github.com/teslashibe/go-foveate/pkg/gaze"
	"github.com/teslashibe/go-foveate/pkg/zone"
)

// Mode selects what the controller drives.
type Mode string

const (
	// ModeLOD forces mesh detail levels per object.
	ModeLOD Mode = "lod"
	// ModeShading pushes the gaze direction to the shading backend.
	ModeShading Mode = "shading"
	// ModeBoth does both.
	ModeBoth Mode = "both"
)

func (m Mode) lod() bool     { return m == ModeLOD || m == ModeBoth }
func (m Mode) shading() bool { return m == ModeShading || m == ModeBoth }

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("region: invalid config")

// Config holds controller configuration.
type Config struct {
	// Mode selects LOD, shading, or both.
	// Default: "both"
	Mode Mode `yaml:"mode" json:"mode"`

	// Radii are the zone ellipses, innermost first.
	// Default: foveal (0.2, 0.2), mid-foveal (0.4, 0.3)
	Radii []zone.Radii `yaml:"radii" json:"radii"`

	// Levels maps zone index to detail level; the last entry covers
	// everything beyond the outermost zone.
	// Default: [0, 1, 2]
	Levels []int `yaml:"levels" json:"levels"`

	// UseDistance classifies with circular Distances instead of Radii.
	UseDistance bool      `yaml:"use_distance" json:"use_distance"`
	Distances   []float64 `yaml:"distances" json:"distances"`

	// Classify is the sign convention applied to the gaze before object
	// classification.
	Classify gaze.AxisConvention `yaml:"classify" json:"classify"`

	// Overlay is the sign convention applied before moving the overlay.
	Overlay gaze.AxisConvention `yaml:"overlay" json:"overlay"`

	// GazeScaleX and GazeScaleY scale the sample into a view direction.
	// Default: 1.02, 0.59
	GazeScaleX float32 `yaml:"gaze_scale_x" json:"gaze_scale_x"`
	GazeScaleY float32 `yaml:"gaze_scale_y" json:"gaze_scale_y"`

	// TickInterval is the Run loop period.
	// Default: 16ms
	TickInterval time.Duration `yaml:"tick_interval" json:"tick_interval"`

	// Camera projects tracked objects.
	Camera Camera `yaml:"camera" json:"camera"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Mode: ModeBoth,
		Radii: []zone.Radii{
			{X: 0.2, Y: 0.2},
			{X: 0.4, Y: 0.3},
		},
		Levels:       []int{0, 1, 2},
		Distances:    []float64{0.2, 0.4},
		GazeScaleX:   gaze.DefaultScaleX,
		GazeScaleY:   gaze.DefaultScaleY,
		TickInterval: 16 * time.Millisecond,
		Camera:       DefaultCamera(),
	}
}

// Validate checks the configuration and fills zero values with defaults.
func (c *Config) Validate() error {
	d := DefaultConfig()
	if c.Mode == "" {
		c.Mode = d.Mode
	}
	switch c.Mode {
	case ModeLOD, ModeShading, ModeBoth:
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, c.Mode)
	}
	if c.UseDistance && len(c.Distances) == 0 {
		return fmt.Errorf("%w: use_distance set without distances", ErrInvalidConfig)
	}
	if !c.UseDistance && len(c.Radii) == 0 {
		return fmt.Errorf("%w: no zone radii", ErrInvalidConfig)
	}
	if len(c.Levels) == 0 {
		c.Levels = d.Levels
	}
	if c.GazeScaleX == 0 {
		c.GazeScaleX = d.GazeScaleX
	}
	if c.GazeScaleY == 0 {
		c.GazeScaleY = d.GazeScaleY
	}
	if c.TickInterval <= 0 {
		c.TickInterval = d.TickInterval
	}
	if c.Camera.FovY <= 0 || c.Camera.Aspect <= 0 {
		c.Camera = d.Camera
	}
	return nil
}

// Increasing reports whether the zones grow outward. Classification of
// points between non-increasing zones is still defined, but a point may
// jump straight to an outer zone.
func (c *Config) Increasing() bool {
	if c.UseDistance {
		for i := 1; i < len(c.Distances); i++ {
			if c.Distances[i] <= c.Distances[i-1] {
				return false
			}
		}
		return true
	}
	return zone.Increasing(c.Radii)
}

// zones returns the number of configured zones, excluding the outside.
func (c *Config) zones() int {
	if c.UseDistance {
		return len(c.Distances)
	}
	return len(c.Radii)
}
