package webcam

import (
	"context"
	"errors"
	"image"
	"sync/atomic"
	"testing"
	"time"

	"github.com/teslashibe/go-foveate/pkg/gaze"
	"gocv.io/x/gocv"
)

// stuckCapture blocks every Read until release is closed.
type stuckCapture struct {
	release chan struct{}
	closed  atomic.Bool
}

func (c *stuckCapture) Read(*gocv.Mat) bool {
	<-c.release
	return false
}

func (c *stuckCapture) Close() error {
	c.closed.Store(true)
	return nil
}

type nopDetector struct {
	closed atomic.Bool
}

func (d *nopDetector) DetectMultiScale(gocv.Mat) []image.Rectangle { return nil }

func (d *nopDetector) Close() error {
	d.closed.Store(true)
	return nil
}

func startStuck(t *testing.T, joinTimeout time.Duration) (*Source, *stuckCapture, *nopDetector, *nopDetector) {
	t.Helper()

	cfg := gaze.DefaultConfig()
	cfg.Method = gaze.MethodWebcam
	cfg.JoinTimeout = joinTimeout
	cfg.ReadPoll = 5 * time.Millisecond

	src := New(cfg, nil)
	capture := &stuckCapture{release: make(chan struct{})}
	face, eye := &nopDetector{}, &nopDetector{}

	src.mu.Lock()
	src.start(capture, face, eye)
	src.mu.Unlock()
	return src, capture, face, eye
}

func TestCleanup_ReleasesHandles(t *testing.T) {
	src, capture, face, eye := startStuck(t, time.Second)

	close(capture.release)
	src.Cleanup()

	if src.Abandoned() != 0 {
		t.Errorf("Abandoned = %d, want 0", src.Abandoned())
	}
	if !capture.closed.Load() || !face.closed.Load() || !eye.closed.Load() {
		t.Error("handles should be closed once Cleanup returns")
	}
	if src.Stats().Running {
		t.Error("source should not be running")
	}
}

func TestCleanup_TimeoutReleasesLate(t *testing.T) {
	src, capture, face, eye := startStuck(t, 30*time.Millisecond)

	start := time.Now()
	src.Cleanup()
	if took := time.Since(start); took > 500*time.Millisecond {
		t.Errorf("Cleanup took %v, want about the join timeout", took)
	}
	if src.Abandoned() != 1 {
		t.Fatalf("Abandoned = %d, want 1", src.Abandoned())
	}
	if capture.closed.Load() {
		t.Error("capture should stay open while Read is blocked")
	}

	// Once the pending Read returns, the loop releases everything.
	close(capture.release)
	deadline := time.Now().Add(2 * time.Second)
	for !(capture.closed.Load() && face.closed.Load() && eye.closed.Load()) {
		if time.Now().After(deadline) {
			t.Fatal("handles were not released after the loop exited")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNew_FillsTimings(t *testing.T) {
	src := New(gaze.Config{Method: gaze.MethodWebcam}, nil)
	def := gaze.DefaultConfig()
	if src.cfg.JoinTimeout != def.JoinTimeout || src.cfg.ReadPoll != def.ReadPoll {
		t.Errorf("timings = %v/%v, want defaults", src.cfg.JoinTimeout, src.cfg.ReadPoll)
	}
}

func TestLargest(t *testing.T) {
	if _, ok := largest(nil); ok {
		t.Error("no rectangles should report not found")
	}

	rects := []image.Rectangle{
		image.Rect(0, 0, 10, 10),
		image.Rect(50, 50, 90, 90),
		image.Rect(0, 0, 20, 20),
	}
	got, ok := largest(rects)
	if !ok || got != rects[1] {
		t.Errorf("largest = %v, want %v", got, rects[1])
	}
}

func TestEyeCentre(t *testing.T) {
	face := image.Rect(100, 50, 300, 250)

	if _, _, ok := eyeCentre(face, nil); ok {
		t.Error("no eyes should report not found")
	}

	eyes := []image.Rectangle{
		image.Rect(20, 40, 60, 80),
		image.Rect(120, 40, 160, 80),
		image.Rect(0, 0, 200, 200), // ignored, only two eyes count
	}
	x, y, ok := eyeCentre(face, eyes)
	if !ok || x != 190 || y != 110 {
		t.Errorf("eyeCentre = (%v, %v, %v), want (190, 110, true)", x, y, ok)
	}
}

func TestToSample(t *testing.T) {
	tests := []struct {
		name string
		x, y float64
		want gaze.Sample
	}{
		{"centre", 320, 240, gaze.Sample{}},
		{"top left", 0, 0, gaze.Sample{X: -1, Y: 1}},
		{"bottom right", 640, 480, gaze.Sample{X: 1, Y: -1}},
		{"outside", 1000, -100, gaze.Sample{X: 1, Y: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := toSample(tt.x, tt.y, 640, 480); got != tt.want {
				t.Errorf("toSample(%v, %v) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}

	if got := toSample(1, 1, 0, 0); got != (gaze.Sample{}) {
		t.Errorf("empty frame should give zero sample, got %v", got)
	}
}

func TestRegistered(t *testing.T) {
	found := false
	for _, m := range gaze.AvailableMethods() {
		if m == gaze.MethodWebcam {
			found = true
		}
	}
	if !found {
		t.Fatal("webcam method should be registered on import")
	}
}

func TestInitialize_MissingCascades(t *testing.T) {
	cfg := gaze.DefaultConfig()
	cfg.Method = gaze.MethodWebcam
	cfg.CascadeDir = t.TempDir()

	src := New(cfg, nil)
	err := src.Initialize(context.Background())
	if !errors.Is(err, gaze.ErrInit) {
		t.Fatalf("missing cascades should fail with ErrInit, got %v", err)
	}

	// Cleanup after a failed Initialize is a no-op.
	src.Cleanup()
	if src.Stats().Running {
		t.Error("source should not be running")
	}
}
