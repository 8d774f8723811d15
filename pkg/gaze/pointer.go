package gaze

import (
	"context"
	"log/slog"
)

// Pointer is a 2D screen pointer (mouse, touch, terminal cursor).
type Pointer interface {
	// PointerPosition returns the pointer position in pixels, origin bottom-left.
	PointerPosition() (x, y float64)

	// Viewport returns the current viewport size in pixels.
	Viewport() (width, height float64)
}

// PointerSource normalizes a pointer position to [-1, 1].
type PointerSource struct {
	pointer Pointer
	axes    AxisConvention
	logger  *slog.Logger
}

// NewPointerSource creates a pointer-driven gaze source.
func NewPointerSource(p Pointer, axes AxisConvention, logger *slog.Logger) *PointerSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &PointerSource{pointer: p, axes: axes, logger: logger}
}

// Initialize has nothing to open.
func (p *PointerSource) Initialize(ctx context.Context) error {
	if p.pointer == nil {
		return &InitError{Method: MethodPointer, Err: ErrMissingDependency}
	}
	return nil
}

// Cleanup has nothing to release.
func (p *PointerSource) Cleanup() {}

// Direction reads the pointer and viewport and normalizes.
func (p *PointerSource) Direction() Sample {
	if p.pointer == nil {
		return Sample{}
	}
	w, h := p.pointer.Viewport()
	if w <= 0 || h <= 0 {
		return Sample{}
	}
	x, y := p.pointer.PointerPosition()
	s := Sample{
		X: x/w*2 - 1,
		Y: y/h*2 - 1,
	}
	return p.axes.Apply(s.Clamp())
}

// Name returns "pointer".
func (p *PointerSource) Name() string {
	return string(MethodPointer)
}

// StaticPointer is a Pointer with a fixed, settable position.
// Useful for headless runs and tests.
type StaticPointer struct {
	X, Y          float64
	Width, Height float64
}

// PointerPosition returns the stored position.
func (s *StaticPointer) PointerPosition() (float64, float64) {
	return s.X, s.Y
}

// Viewport returns the stored viewport.
func (s *StaticPointer) Viewport() (float64, float64) {
	return s.Width, s.Height
}
