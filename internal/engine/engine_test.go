package engine

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/teslashibe/go-foveate/internal/config"
	"github.com/teslashibe/go-foveate/pkg/gaze"
	"github.com/teslashibe/go-foveate/pkg/pipeline"
	"github.com/teslashibe/go-foveate/pkg/quality"
	"github.com/teslashibe/go-foveate/pkg/region"
	"github.com/teslashibe/go-foveate/pkg/zone"
)

func testConfig() config.App {
	cfg := config.Default()
	cfg.Dashboard.Enabled = false
	cfg.Scene = config.Scene{Cols: 3, Rows: 1, Spacing: 1, LODs: 3}
	return cfg
}

func TestFrame(t *testing.T) {
	e, err := New(testConfig(), nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := e.Start(t.Context()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer e.Close()

	if !e.Session.Ready() {
		t.Fatal("session should be ready with the software backend")
	}
	if e.Switcher.Active() != gaze.MethodPointer {
		t.Errorf("Active = %q, want pointer", e.Switcher.Active())
	}

	report, trace, err := e.Frame()
	if err != nil {
		t.Fatalf("Frame: %v", err)
	}
	if report.Objects != 3 {
		t.Errorf("Objects = %d, want 3", report.Objects)
	}
	if !slices.Contains(trace.Issued(), "enable@before-forward-opaque") {
		t.Errorf("issued = %v", trace.Issued())
	}
	if !e.Backend.State().Open {
		t.Error("backend should be open")
	}
}

func TestStartWithUnavailableBackend(t *testing.T) {
	cfg := testConfig()
	cfg.Backend.Available = false

	e, err := New(cfg, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := e.Start(t.Context()); err != nil {
		t.Fatalf("Start should tolerate a missing backend: %v", err)
	}
	defer e.Close()

	if e.Session.Ready() {
		t.Error("session should not be ready")
	}
	if _, trace, err := e.Frame(); err != nil || len(trace) == 0 {
		t.Errorf("frame without backend: %v, %d steps", err, len(trace))
	}
}

func TestStartSeedsCustomQuality(t *testing.T) {
	cfg := testConfig()
	cfg.Quality.Preset = "custom"
	cfg.Quality.Pattern = "wide"
	cfg.Quality.Rates = [zone.Count]string{"2x1", "4x2", "4x4"}
	cfg.Quality.Radii = [zone.Count]zone.Radii{{X: 0.1, Y: 0.1}, {X: 0.3, Y: 0.2}, {X: 1, Y: 1}}

	e, err := New(cfg, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := e.Start(t.Context()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer e.Close()

	want := [zone.Count]quality.ShadingRate{quality.Rate2x1, quality.Rate4x2, quality.Rate4x4}
	if got := e.Backend.State().Rates; got != want {
		t.Errorf("backend rates = %v, want %v", got, want)
	}
	if got := e.Profile.Quality(zone.Middle); got != quality.Rate4x2 {
		t.Errorf("Quality(middle) = %s, want 4x2", got)
	}

	// The named pattern wins; the configured radii wait for the custom pattern.
	if e.Profile.CurrentPattern() != quality.PatternWide {
		t.Errorf("pattern = %s, want wide", e.Profile.CurrentPattern())
	}
	e.Profile.ApplyPattern(quality.PatternCustom)
	if got := e.Backend.State().Radii[zone.Middle]; got != (zone.Radii{X: 0.3, Y: 0.2}) {
		t.Errorf("backend middle radii = %v", got)
	}
}

func TestRun(t *testing.T) {
	cfg := testConfig()
	cfg.Region.TickInterval = 5 * time.Millisecond
	cfg.Pipeline.Style = pipeline.StyleImmediate

	e, err := New(cfg, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Start(t.Context()); err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	ctx, cancel := context.WithTimeout(t.Context(), 100*time.Millisecond)
	defer cancel()

	frames := 0
	e.Run(ctx, func(region.TickReport, pipeline.Trace) { frames++ })

	if frames < 2 {
		t.Errorf("frames = %d, want at least 2", frames)
	}
	if e.Renderer.Frame().Frames() != int64(frames) {
		t.Errorf("renderer frames = %d, callbacks = %d", e.Renderer.Frame().Frames(), frames)
	}
}

func TestInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Quality.Preset = "warp"
	if _, err := New(cfg, nil, nil); err == nil {
		t.Error("New should reject an invalid config")
	}
}
