package gaze

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Default multipliers applied when converting a sample into a 3D gaze direction.
// They compensate for the horizontal/vertical extent of a typical 16:9 view.
const (
	DefaultScaleX = 1.02
	DefaultScaleY = 0.59
)

// Sample is a unit-less gaze offset from forward.
// Both axes are in [-1, 1]; the zero value means "looking straight ahead".
type Sample struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Clamp limits both axes to [-1, 1].
func (s Sample) Clamp() Sample {
	return Sample{X: clamp(s.X, -1, 1), Y: clamp(s.Y, -1, 1)}
}

// Valid reports whether both axes are finite.
func (s Sample) Valid() bool {
	return !math.IsNaN(s.X) && !math.IsNaN(s.Y) && !math.IsInf(s.X, 0) && !math.IsInf(s.Y, 0)
}

// Direction converts the sample into a normalized view-space direction
// (x*scaleX, y*scaleY, 1), as consumed by the shading backend.
func (s Sample) Direction(scaleX, scaleY float32) mgl32.Vec3 {
	return mgl32.Vec3{float32(s.X) * scaleX, float32(s.Y) * scaleY, 1}.Normalize()
}

// Flip returns the sample with the axes of c negated.
func (s Sample) Flip(c AxisConvention) Sample {
	return c.Apply(s)
}

// AxisConvention describes which axes a consumer negates.
// Providers and the overlay each carry their own convention.
type AxisConvention struct {
	InvertX bool `yaml:"invert_x" json:"invert_x"`
	InvertY bool `yaml:"invert_y" json:"invert_y"`
}

// Apply returns the sample with the configured axes negated.
func (c AxisConvention) Apply(s Sample) Sample {
	if c.InvertX {
		s.X = -s.X
	}
	if c.InvertY {
		s.Y = -s.Y
	}
	return s
}

func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
