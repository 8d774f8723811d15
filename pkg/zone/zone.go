// Package zone classifies screen points by eccentricity from a gaze centre.
//
// Zones are concentric ellipses checked in ascending order; the first one
// containing the point wins. A point inside none of them falls in the
// implicit outside zone, whose index equals the number of zones.
package zone

import (
	"fmt"
	"strconv"

	"github.com/go-gl/mathgl/mgl64"
)

// Zone names the three configured regions.
type Zone int

const (
	Inner Zone = iota
	Middle
	Peripheral
)

// Count is the number of named zones.
const Count = 3

var zoneNames = [...]string{"inner", "middle", "peripheral"}

// String returns the lowercase zone name.
func (z Zone) String() string {
	if z >= 0 && int(z) < len(zoneNames) {
		return zoneNames[z]
	}
	return fmt.Sprintf("zone(%d)", int(z))
}

// Parse converts a zone name or index ("inner", "1") to a Zone.
func Parse(s string) (Zone, error) {
	for i, n := range zoneNames {
		if s == n {
			return Zone(i), nil
		}
	}
	if i, err := strconv.Atoi(s); err == nil && i >= 0 && i < Count {
		return Zone(i), nil
	}
	return 0, fmt.Errorf("zone: unknown zone %q", s)
}

// Radii are the half-axes of a zone ellipse in normalized screen units.
type Radii struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

// Reachable reports whether both radii are positive.
func (r Radii) Reachable() bool {
	return r.X > 0 && r.Y > 0
}

// InEllipse reports whether the offset (dx, dy) lies within r.
// Degenerate radii never contain anything.
func InEllipse(dx, dy float64, r Radii) bool {
	if !r.Reachable() {
		return false
	}
	e := dx*dx/(r.X*r.X) + dy*dy/(r.Y*r.Y)
	return e <= 1
}

// Classify returns the index of the first zone whose ellipse contains
// point, or len(radii) when none does.
func Classify(point, center mgl64.Vec2, radii []Radii) int {
	d := point.Sub(center)
	for i, r := range radii {
		if InEllipse(d.X(), d.Y(), r) {
			return i
		}
	}
	return len(radii)
}

// ClassifyDistance is Classify with a circular threshold per zone.
// Non-positive thresholds never match.
func ClassifyDistance(point, center mgl64.Vec2, radii []float64) int {
	dist := point.Sub(center).Len()
	for i, r := range radii {
		if r > 0 && dist <= r {
			return i
		}
	}
	return len(radii)
}

// Level maps a zone index to a quality level.
//
// Indices past the end of levels (including the outside zone) take the
// last, coarsest entry. The result is clamped to [0, available-1] so it
// never exceeds what the object actually has. With no levels or nothing
// available, Level returns 0.
func Level(zoneIndex int, levels []int, available int) int {
	if len(levels) == 0 || available <= 0 {
		return 0
	}
	if zoneIndex < 0 {
		zoneIndex = 0
	}
	if zoneIndex >= len(levels) {
		zoneIndex = len(levels) - 1
	}

	level := levels[zoneIndex]
	if level < 0 {
		return 0
	}
	if level > available-1 {
		return available - 1
	}
	return level
}

// Increasing reports whether each zone strictly contains the previous one
// on both axes. Classification still works otherwise, but an inner zone
// may shadow an outer one.
func Increasing(radii []Radii) bool {
	for i := 1; i < len(radii); i++ {
		if radii[i].X <= radii[i-1].X || radii[i].Y <= radii[i-1].Y {
			return false
		}
	}
	return true
}
