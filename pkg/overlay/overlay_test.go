package overlay

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/teslashibe/go-foveate/pkg/gaze"
	"github.com/teslashibe/go-foveate/pkg/zone"
)

func TestVisualizer_State(t *testing.T) {
	v := New(1000, 500)
	v.SetCenter(gaze.Sample{X: 0.5, Y: -0.5})
	v.UpdateRadii(zone.Radii{X: 0.2, Y: 0.2}, zone.Radii{X: 0.4, Y: 0.3})

	s := v.State()
	if s.PixelCenter != [2]float64{750, 125} {
		t.Errorf("PixelCenter = %v, want (750, 125)", s.PixelCenter)
	}
	if s.InnerDiameter != [2]float64{400, 200} {
		t.Errorf("InnerDiameter = %v, want (400, 200)", s.InnerDiameter)
	}
	if s.MiddleDiameter != [2]float64{800, 300} {
		t.Errorf("MiddleDiameter = %v, want (800, 300)", s.MiddleDiameter)
	}

	v.Resize(2000, 1000)
	if got := v.State().PixelCenter; got != [2]float64{1500, 250} {
		t.Errorf("PixelCenter after resize = %v", got)
	}

	v.Resize(0, 100)
	if v.State().Width != 2000 {
		t.Error("invalid resize should be ignored")
	}
}

func TestVisualizer_Defaults(t *testing.T) {
	v := New(0, 0)
	s := v.State()
	if s.Width != DefaultWidth || s.Height != DefaultHeight {
		t.Errorf("size = %dx%d, want default", s.Width, s.Height)
	}
	if !s.Enabled {
		t.Error("visualizer should start enabled")
	}
	if s.Inner != (zone.Radii{X: 0.25, Y: 0.25}) {
		t.Errorf("inner = %v", s.Inner)
	}
}

func TestVisualizer_OnChange(t *testing.T) {
	v := New(100, 100)

	var got []State
	v.OnChange(func(s State) { got = append(got, s) })

	v.SetCenter(gaze.Sample{X: 0.1})
	v.SetCenter(gaze.Sample{X: 0.1}) // unchanged, no event
	v.SetEnabled(false)

	if len(got) != 2 {
		t.Fatalf("listener called %d times, want 2", len(got))
	}
	if got[0].Center[0] != 0.1 || got[1].Enabled {
		t.Errorf("events = %+v", got)
	}
	if v.Enabled() {
		t.Error("Enabled should be false")
	}
}

func TestVisualizer_Render(t *testing.T) {
	v := New(200, 100)
	v.UpdateRadii(zone.Radii{X: 0.25, Y: 0.25}, zone.Radii{X: 0.4, Y: 0.4})

	var buf bytes.Buffer
	if err := v.Render(&buf); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 100 {
		t.Errorf("image is %dx%d, want 200x100", b.Dx(), b.Dy())
	}

	// The gaze dot sits at the centre.
	r, g, b, _ := img.At(100, 50).RGBA()
	if r>>8 < 200 || g>>8 < 200 || b>>8 < 200 {
		t.Errorf("centre pixel = (%d, %d, %d), want white", r>>8, g>>8, b>>8)
	}

	// The inner ellipse crosses the horizontal axis at x = 100 + 50.
	r, g, _, _ = img.At(150, 50).RGBA()
	if r>>8 < 150 || g>>8 > 100 {
		t.Errorf("inner ring pixel = (%d, %d), want red", r>>8, g>>8)
	}

	// A corner pixel is background.
	r, g, b, _ = img.At(1, 1).RGBA()
	if r>>8 > 60 || g>>8 > 60 || b>>8 > 60 {
		t.Errorf("corner pixel = (%d, %d, %d), want background", r>>8, g>>8, b>>8)
	}
}

func TestVisualizer_RenderDisabled(t *testing.T) {
	v := New(64, 64)
	v.SetEnabled(false)

	var buf bytes.Buffer
	if err := v.Render(&buf); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	r, _, _, _ := img.At(32, 32).RGBA()
	if r>>8 > 60 {
		t.Errorf("disabled overlay should not draw the gaze point, r = %d", r>>8)
	}
}
