package region

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// Camera is a perspective camera used to project tracked objects into
// normalized screen space.
type Camera struct {
	Eye    mgl32.Vec3 `yaml:"eye" json:"eye"`
	Target mgl32.Vec3 `yaml:"target" json:"target"`
	Up     mgl32.Vec3 `yaml:"up" json:"up"`

	// FovY is the vertical field of view in degrees.
	FovY   float32 `yaml:"fov_y" json:"fov_y"`
	Aspect float32 `yaml:"aspect" json:"aspect"`
	Near   float32 `yaml:"near" json:"near"`
	Far    float32 `yaml:"far" json:"far"`

	// Viewport size in pixels.
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

// DefaultCamera looks down -Z from (0, 0, 5) with a 60° 16:9 frustum.
func DefaultCamera() Camera {
	return Camera{
		Eye:    mgl32.Vec3{0, 0, 5},
		Target: mgl32.Vec3{0, 0, 0},
		Up:     mgl32.Vec3{0, 1, 0},
		FovY:   60,
		Aspect: 16.0 / 9.0,
		Near:   0.1,
		Far:    1000,
		Width:  1280,
		Height: 720,
	}
}

// View returns the view matrix.
func (c Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Eye, c.Target, c.Up)
}

// Projection returns the perspective projection matrix.
func (c Camera) Projection() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FovY), c.Aspect, c.Near, c.Far)
}

// Project maps a world position into normalized screen coordinates in
// [-1, 1] with y up. Points behind the camera report false.
func (c Camera) Project(world mgl32.Vec3) (mgl64.Vec2, bool) {
	view, proj := c.View(), c.Projection()

	clip := proj.Mul4(view).Mul4x1(world.Vec4(1))
	if clip.W() <= 0 {
		return mgl64.Vec2{}, false
	}

	w, h := c.Width, c.Height
	if w <= 0 || h <= 0 {
		w, h = 2, 2
	}
	win := mgl32.Project(world, view, proj, 0, 0, w, h)

	return mgl64.Vec2{
		float64(win.X())/float64(w)*2 - 1,
		float64(win.Y())/float64(h)*2 - 1,
	}, true
}
