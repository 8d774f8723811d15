package region

import (
	"context"
	"math"
	"slices"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/teslashibe/go-foveate/pkg/gaze"
	"github.com/teslashibe/go-foveate/pkg/overlay"
	"github.com/teslashibe/go-foveate/pkg/quality"
	"github.com/teslashibe/go-foveate/pkg/stats"
	"github.com/teslashibe/go-foveate/pkg/zone"
)

type fixedGaze struct{ s gaze.Sample }

func (f *fixedGaze) Direction() gaze.Sample { return f.s }

// unitCamera maps world (x, y, 0) to normalized (x, y).
func unitCamera() Camera {
	return Camera{
		Eye:    mgl32.Vec3{0, 0, 1},
		Target: mgl32.Vec3{0, 0, 0},
		Up:     mgl32.Vec3{0, 1, 0},
		FovY:   90,
		Aspect: 1,
		Near:   0.01,
		Far:    100,
		Width:  1000,
		Height: 1000,
	}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Camera = unitCamera()
	return cfg
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-3
}

func TestCamera_Project(t *testing.T) {
	cam := DefaultCamera()

	p, ok := cam.Project(mgl32.Vec3{0, 0, 0})
	if !ok || !near(p.X(), 0) || !near(p.Y(), 0) {
		t.Errorf("origin = %v (%v), want centre", p, ok)
	}

	// f = 1/tan(30°); x_ndc = f/aspect * x/depth.
	f := 1 / math.Tan(math.Pi/6)
	p, _ = cam.Project(mgl32.Vec3{1, 1, 0})
	if !near(p.X(), f/(16.0/9.0)/5) || !near(p.Y(), f/5) {
		t.Errorf("Project(1, 1, 0) = %v", p)
	}

	if _, ok := cam.Project(mgl32.Vec3{0, 0, 10}); ok {
		t.Error("point behind the camera should not project")
	}
}

func TestCamera_UnitProjection(t *testing.T) {
	cam := unitCamera()
	p, ok := cam.Project(mgl32.Vec3{0.3, -0.2, 0})
	if !ok || !near(p.X(), 0.3) || !near(p.Y(), -0.2) {
		t.Errorf("Project = %v, want (0.3, -0.2)", p)
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := Config{Radii: []zone.Radii{{X: 0.1, Y: 0.1}}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if cfg.Mode != ModeBoth || cfg.TickInterval != 16*time.Millisecond {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.GazeScaleX != gaze.DefaultScaleX || len(cfg.Levels) != 3 {
		t.Errorf("defaults not applied: %+v", cfg)
	}

	bad := []Config{
		{Mode: "fast", Radii: cfg.Radii},
		{Mode: ModeLOD},
		{Mode: ModeLOD, UseDistance: true},
	}
	for _, c := range bad {
		if err := c.Validate(); err == nil {
			t.Errorf("Validate(%+v) should fail", c)
		}
	}
}

func TestConfig_Increasing(t *testing.T) {
	cfg := DefaultConfig()
	if !cfg.Increasing() {
		t.Error("default radii should increase")
	}

	cfg.Radii = []zone.Radii{{X: 0.4, Y: 0.4}, {X: 0.2, Y: 0.2}}
	if cfg.Increasing() {
		t.Error("shrinking radii reported as increasing")
	}

	cfg.UseDistance = true
	cfg.Distances = []float64{0.1, 0.1}
	if cfg.Increasing() {
		t.Error("equal distances reported as increasing")
	}
}

func TestController_ClassifiesObjects(t *testing.T) {
	inner := NewMesh("inner", mgl32.Vec3{0.1, 0, 0}, 3)
	middle := NewMesh("middle", mgl32.Vec3{0.3, 0, 0}, 3)
	outer := NewMesh("outer", mgl32.Vec3{0.9, 0.9, 0}, 3)
	twoLevels := NewMesh("two", mgl32.Vec3{0.9, -0.9, 0}, 2)
	behind := NewMesh("behind", mgl32.Vec3{0, 0, 5}, 3)
	noLODs := NewMesh("none", mgl32.Vec3{0, 0, 0}, 0)

	scene := NewStaticScene(inner, middle, outer, twoLevels, behind, noLODs)
	c := New(testConfig(), Deps{Gaze: &fixedGaze{}, Scene: scene}, nil)

	report := c.Tick()

	tests := []struct {
		mesh *Mesh
		want int
	}{
		{inner, 0},
		{middle, 1},
		{outer, 2},
		{twoLevels, 1},
		{behind, 2},
		{noLODs, -1},
	}
	for _, tt := range tests {
		if got := tt.mesh.Level(); got != tt.want {
			t.Errorf("%s level = %d, want %d", tt.mesh.ID(), got, tt.want)
		}
	}

	if report.Objects != 6 || report.Culled != 1 {
		t.Errorf("objects = %d, culled = %d", report.Objects, report.Culled)
	}
	if want := []int{2, 1, 3}; !slices.Equal(report.Zones, want) {
		t.Errorf("zones = %v, want %v", report.Zones, want)
	}
}

func TestController_OverwritesWithoutReset(t *testing.T) {
	m := NewMesh("m", mgl32.Vec3{0.1, 0, 0}, 3)
	g := &fixedGaze{}
	c := New(testConfig(), Deps{Gaze: g, Scene: NewStaticScene(m)}, nil)

	c.Tick()
	c.Tick()
	if m.Level() != 0 || m.Forced() != 2 {
		t.Errorf("level = %d, forced = %d", m.Level(), m.Forced())
	}

	g.s = gaze.Sample{X: -0.9, Y: -0.9}
	c.Tick()
	if m.Level() != 2 || m.Forced() != 3 {
		t.Errorf("after gaze move: level = %d, forced = %d", m.Level(), m.Forced())
	}
}

func TestController_AxisConventions(t *testing.T) {
	m := NewMesh("left", mgl32.Vec3{-0.3, 0, 0}, 3)
	v := overlay.New(100, 100)

	cfg := testConfig()
	cfg.Classify = gaze.AxisConvention{InvertX: true}
	cfg.Overlay = gaze.AxisConvention{InvertY: true}

	c := New(cfg, Deps{
		Gaze:    &fixedGaze{s: gaze.Sample{X: 0.3, Y: 0.1}},
		Scene:   NewStaticScene(m),
		Overlay: v,
	}, nil)

	report := c.Tick()
	if m.Level() != 0 {
		t.Errorf("level = %d, want 0 with the classification centre flipped onto the mesh", m.Level())
	}
	if report.Center.X() != -0.3 || report.Center.Y() != 0.1 {
		t.Errorf("classification centre = %v, want (-0.3, 0.1)", report.Center)
	}
	if got := v.State().Center; got != [2]float64{0.3, -0.1} {
		t.Errorf("overlay centre = %v, want (0.3, -0.1)", got)
	}
	if !report.OverlayMoved {
		t.Error("overlay should have moved")
	}

	v.SetEnabled(false)
	if c.Tick().OverlayMoved {
		t.Error("disabled overlay should not move")
	}
}

func TestController_SyncsOverlayRadii(t *testing.T) {
	v := overlay.New(100, 100)
	c := New(testConfig(), Deps{Gaze: &fixedGaze{}, Overlay: v}, nil)

	s := v.State()
	if s.Inner != (zone.Radii{X: 0.2, Y: 0.2}) || s.Middle != (zone.Radii{X: 0.4, Y: 0.3}) {
		t.Errorf("overlay radii = %v, %v", s.Inner, s.Middle)
	}

	if err := c.SetRadii([]zone.Radii{{X: 0.1, Y: 0.1}, {X: 0.5, Y: 0.5}}); err != nil {
		t.Fatalf("SetRadii failed: %v", err)
	}
	if got := v.State().Middle; got != (zone.Radii{X: 0.5, Y: 0.5}) {
		t.Errorf("overlay middle = %v after SetRadii", got)
	}
}

func TestController_ShadingModes(t *testing.T) {
	backend := &quality.MockBackend{}
	session := quality.NewSession(backend, nil)
	if err := session.Start(60, 1.5); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	profile := quality.NewProfile(session, nil)
	m := NewMesh("m", mgl32.Vec3{}, 3)

	cfg := testConfig()
	cfg.Mode = ModeShading
	c := New(cfg, Deps{
		Gaze:    &fixedGaze{s: gaze.Sample{X: 0.5}},
		Profile: profile,
		Scene:   NewStaticScene(m),
	}, nil)

	backend.Reset()
	report := c.Tick()
	if !report.ShadingPushed {
		t.Error("shading mode should push gaze")
	}
	if m.Forced() != 0 {
		t.Error("shading mode should not force LOD")
	}
	if want := []string{"gaze", "issue update-gaze"}; !slices.Equal(backend.Calls(), want) {
		t.Errorf("calls = %v, want %v", backend.Calls(), want)
	}
	if g := backend.Gaze(); g.X() <= 0 || g.Z() <= 0 {
		t.Errorf("gaze direction = %v", g)
	}

	if err := c.SetMode(ModeLOD); err != nil {
		t.Fatalf("SetMode failed: %v", err)
	}
	backend.Reset()
	report = c.Tick()
	if report.ShadingPushed || len(backend.Calls()) != 0 {
		t.Errorf("LOD mode touched the backend: %v", backend.Calls())
	}
	if m.Forced() != 1 {
		t.Error("LOD mode should force LOD")
	}

	session.Close()
	if err := c.SetMode(ModeBoth); err != nil {
		t.Fatal(err)
	}
	if c.Tick().ShadingPushed {
		t.Error("closed session should not accept gaze")
	}
}

func TestController_InvalidGaze(t *testing.T) {
	c := New(testConfig(), Deps{Gaze: &fixedGaze{s: gaze.Sample{X: math.NaN()}}}, nil)
	if got := c.Tick().Gaze; got != (gaze.Sample{}) {
		t.Errorf("NaN gaze = %v, want zero", got)
	}

	c = New(testConfig(), Deps{}, nil)
	if got := c.Tick().Gaze; got != (gaze.Sample{}) {
		t.Errorf("missing gaze = %v, want zero", got)
	}
}

func TestController_InvalidConfigFallsBack(t *testing.T) {
	c := New(Config{Mode: "nope"}, Deps{}, nil)
	if c.Config().Mode != ModeBoth {
		t.Errorf("mode = %q, want default", c.Config().Mode)
	}
	if err := c.SetMode("nope"); err == nil {
		t.Error("SetMode should reject unknown modes")
	}
}

func TestController_UseDistance(t *testing.T) {
	m := NewMesh("m", mgl32.Vec3{0.25, 0, 0}, 3)
	cfg := testConfig()
	cfg.UseDistance = true
	cfg.Distances = []float64{0.1, 0.3}

	c := New(cfg, Deps{Gaze: &fixedGaze{}, Scene: NewStaticScene(m)}, nil)
	report := c.Tick()
	if m.Level() != 1 || len(report.Zones) != 3 {
		t.Errorf("level = %d, zones = %v", m.Level(), report.Zones)
	}
}

func TestController_Run(t *testing.T) {
	collector := stats.NewCollector(0)
	cfg := testConfig()
	cfg.TickInterval = time.Millisecond

	c := New(cfg, Deps{Gaze: &fixedGaze{}, Scene: GridScene(3, 3, 0.5, 3), Stats: collector}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for collector.Snapshot().Frames < 3 {
		if time.Now().After(deadline) {
			t.Fatal("controller did not tick")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if c.Running() {
		t.Error("Running should be false after Run returns")
	}
	if c.Last().Objects != 9 {
		t.Errorf("last tick objects = %d, want 9", c.Last().Objects)
	}
}
