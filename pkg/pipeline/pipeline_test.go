package pipeline

import (
	"errors"
	"slices"
	"testing"

	"github.com/teslashibe/go-foveate/pkg/quality"
)

type recordingIssuer struct {
	events []quality.Event
	refuse bool
}

func (r *recordingIssuer) Issue(ev quality.Event) bool {
	if r.refuse {
		return false
	}
	r.events = append(r.events, ev)
	return true
}

func TestTimeline(t *testing.T) {
	tests := []struct {
		path Path
		want []Event
	}{
		{PathForward, []Event{BeforeForwardOpaque, AfterForwardOpaque, BeforeForwardAlpha, AfterForwardAlpha}},
		{PathDeferred, []Event{BeforeGBuffer, AfterGBuffer, BeforeForwardOpaque, AfterForwardOpaque, BeforeForwardAlpha, AfterForwardAlpha}},
	}
	for _, tt := range tests {
		if got := Timeline(tt.path); !slices.Equal(got, tt.want) {
			t.Errorf("Timeline(%v) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestParsePath(t *testing.T) {
	tests := []struct {
		in      string
		want    Path
		wantErr bool
	}{
		{"forward", PathForward, false},
		{"Deferred", PathDeferred, false},
		{"", PathForward, false},
		{"tiled", PathForward, true},
	}
	for _, tt := range tests {
		got, err := ParsePath(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParsePath(%q) = %v, %v", tt.in, got, err)
		}
		if tt.wantErr && !errors.Is(err, ErrInvalidPath) {
			t.Errorf("ParsePath(%q) error = %v, want ErrInvalidPath", tt.in, err)
		}
	}
}

func TestImmediate_ForwardBrackets(t *testing.T) {
	issuer := &recordingIssuer{}
	frame := NewFrame(PathForward, issuer)
	s := NewImmediateScheduler(frame, PathForward, nil)
	s.Enable()

	trace, err := frame.Render(nil)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	want := []string{
		"before-forward-opaque",
		"issue enable@before-forward-opaque",
		"clear shading-rate-image@before-forward-opaque",
		"draw opaque",
		"after-forward-opaque",
		"before-forward-alpha",
		"draw alpha",
		"after-forward-alpha",
		"issue disable@after-forward-alpha",
	}
	if got := trace.Strings(); !slices.Equal(got, want) {
		t.Errorf("trace =\n%v\nwant\n%v", got, want)
	}
	if want := []quality.Event{quality.EventEnable, quality.EventDisable}; !slices.Equal(issuer.events, want) {
		t.Errorf("backend events = %v, want %v", issuer.events, want)
	}
}

func TestImmediate_DeferredBrackets(t *testing.T) {
	frame := NewFrame(PathDeferred, &recordingIssuer{})
	s := NewImmediateScheduler(frame, PathDeferred, nil)
	s.Enable()

	trace, err := frame.Render(nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"enable@before-gbuffer",
		"disable@after-gbuffer",
		"enable@before-forward-alpha",
		"disable@after-forward-alpha",
	}
	if got := trace.Issued(); !slices.Equal(got, want) {
		t.Errorf("issued = %v, want %v", got, want)
	}
}

func TestStyles_IdenticalSequences(t *testing.T) {
	for _, path := range []string{"forward", "deferred"} {
		var traces [2][]string
		for i, style := range []Style{StyleImmediate, StyleGraph} {
			r, err := NewRenderer(Config{Style: style, Path: path, Enabled: true}, &recordingIssuer{}, nil)
			if err != nil {
				t.Fatalf("NewRenderer(%s, %s) failed: %v", style, path, err)
			}
			trace, err := r.Render()
			if err != nil {
				t.Fatalf("Render(%s, %s) failed: %v", style, path, err)
			}
			traces[i] = trace.Strings()
		}
		if !slices.Equal(traces[0], traces[1]) {
			t.Errorf("%s: immediate and graph differ:\n%v\n%v", path, traces[0], traces[1])
		}
	}
}

func TestImmediate_Idempotent(t *testing.T) {
	frame := NewFrame(PathForward, &recordingIssuer{})
	s := NewImmediateScheduler(frame, PathForward, nil)

	s.Enable()
	s.Enable()
	if n := frame.Attached(BeforeForwardOpaque); n != 1 {
		t.Errorf("attached after double enable = %d, want 1", n)
	}

	trace, _ := frame.Render(nil)
	if n := len(trace.Issued()); n != 2 {
		t.Errorf("issued %d events, want 2", n)
	}

	s.Disable()
	s.Disable()
	if s.Enabled() || frame.Attached(BeforeForwardOpaque) != 0 || frame.Attached(AfterForwardAlpha) != 0 {
		t.Error("disable should detach every buffer")
	}
	trace, _ = frame.Render(nil)
	if len(trace.Issued()) != 0 {
		t.Errorf("disabled frame issued %v", trace.Issued())
	}
}

func TestImmediate_SetPath(t *testing.T) {
	frame := NewFrame(PathForward, &recordingIssuer{})
	s := NewImmediateScheduler(frame, PathForward, nil)
	s.Enable()

	s.SetPath(PathDeferred)
	if s.Path() != PathDeferred {
		t.Errorf("Path = %v", s.Path())
	}
	if frame.Attached(BeforeForwardOpaque) != 0 || frame.Attached(BeforeGBuffer) != 1 {
		t.Error("brackets were not rebuilt for the deferred path")
	}

	s.Disable()
	s.SetPath(PathForward)
	if frame.Attached(BeforeForwardOpaque) != 0 {
		t.Error("disabled scheduler should not attach on SetPath")
	}
}

func TestGraph_Record(t *testing.T) {
	s := NewGraphScheduler(PathForward, nil)
	g := NewGraph()

	s.Record(g)
	if g.Len() != 0 {
		t.Errorf("disabled scheduler recorded %d passes", g.Len())
	}

	s.Enable()
	s.Enable()
	s.Record(g)
	if g.Len() != 2 {
		t.Errorf("recorded %d passes, want 2", g.Len())
	}

	passes, err := g.Compile()
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if len(passes) != 2 || len(g.Culled()) != 0 {
		t.Errorf("force-kept passes were culled: %v", g.Culled())
	}

	s.SetPath(PathDeferred)
	g.Reset()
	s.Record(g)
	if g.Len() != 4 {
		t.Errorf("deferred recorded %d passes, want 4", g.Len())
	}
}

func TestGraph_Culling(t *testing.T) {
	noop := func(*PassContext) {}

	g := NewGraph()
	g.AddPass(Pass{Name: "alpha-effect", Event: AfterForwardAlpha, Execute: noop})
	g.AddPass(Pass{Name: "tonemap", Event: AfterForwardAlpha, Writes: []string{"color"}, Execute: noop})
	g.AddPass(Pass{Name: "side-effect", Event: BeforeForwardOpaque, ForceKeep: true, Execute: noop})

	passes, err := g.Compile()
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	var names []string
	for _, p := range passes {
		names = append(names, p.Name)
	}
	if want := []string{"side-effect", "tonemap"}; !slices.Equal(names, want) {
		t.Errorf("kept = %v, want %v", names, want)
	}
	if want := []string{"alpha-effect"}; !slices.Equal(g.Culled(), want) {
		t.Errorf("culled = %v, want %v", g.Culled(), want)
	}
}

func TestGraph_InvalidPass(t *testing.T) {
	tests := []Pass{
		{Name: "no-exec", Event: BeforeForwardOpaque, ForceKeep: true},
		{Name: "bad-event", Event: Event(42), ForceKeep: true, Execute: func(*PassContext) {}},
	}
	for _, p := range tests {
		g := NewGraph()
		g.AddPass(p)
		if _, err := g.Compile(); !errors.Is(err, ErrInvalidPass) {
			t.Errorf("%s: err = %v, want ErrInvalidPass", p.Name, err)
		}

		f := NewFrame(PathForward, nil)
		if _, err := f.Render(g); err == nil {
			t.Errorf("%s: Render should fail", p.Name)
		}
	}
}

func TestFrame_PhaseHooks(t *testing.T) {
	f := NewFrame(PathDeferred, nil)

	var phases []string
	f.OnPhase(func(p Phase) { phases = append(phases, p.Name) })

	if _, err := f.Render(nil); err != nil {
		t.Fatal(err)
	}
	if want := []string{"gbuffer", "opaque", "alpha"}; !slices.Equal(phases, want) {
		t.Errorf("phases = %v, want %v", phases, want)
	}
	if f.Frames() != 1 || len(f.Last()) == 0 {
		t.Errorf("frames = %d, last = %v", f.Frames(), f.Last())
	}
}

func TestFrame_DroppedEvents(t *testing.T) {
	// A session that was never started refuses every event.
	session := quality.NewSession(quality.NewMockBackend(), nil)

	r, err := NewRenderer(Config{Style: StyleImmediate, Path: "forward", Enabled: true}, session, nil)
	if err != nil {
		t.Fatal(err)
	}
	trace, _ := r.Render()

	var dropped int
	for _, s := range trace {
		if s.Kind == StepIssue && s.Dropped {
			dropped++
		}
	}
	if dropped != 2 {
		t.Errorf("dropped = %d, want 2: %v", dropped, trace.Strings())
	}
}

func TestRenderer_WithSession(t *testing.T) {
	backend := quality.NewMockBackend()
	session := quality.NewSession(backend, nil)
	if err := session.Start(60, 1.5); err != nil {
		t.Fatal(err)
	}

	r, err := NewRenderer(DefaultConfig(), session, nil)
	if err != nil {
		t.Fatal(err)
	}
	if r.Style() != StyleGraph || !r.Scheduler().Enabled() {
		t.Errorf("style = %s, enabled = %v", r.Style(), r.Scheduler().Enabled())
	}

	for range 3 {
		if _, err := r.Render(); err != nil {
			t.Fatal(err)
		}
	}
	if n := len(backend.Events()); n != 6 {
		t.Errorf("backend saw %d events over 3 frames, want 6", n)
	}

	if r.Toggle() {
		t.Error("Toggle should disable")
	}
	backend.Reset()
	r.Render()
	if len(backend.Events()) != 0 {
		t.Errorf("disabled renderer issued %v", backend.Events())
	}
	if !r.Toggle() {
		t.Error("Toggle should enable")
	}

	r.SetPath(PathDeferred)
	trace, _ := r.Render()
	if len(trace.Issued()) != 4 || r.Frame().Path() != PathDeferred {
		t.Errorf("deferred issued %v", trace.Issued())
	}
}

func TestBufferSet(t *testing.T) {
	a := NewFrame(PathForward, nil)
	b := NewFrame(PathForward, nil)
	cb := &CommandBuffer{Name: "x", Commands: []Command{IssueCommand(quality.EventEnable)}}

	set := NewBufferSet()
	set.Add(BeforeForwardOpaque, cb)

	set.Activate(a)
	set.Activate(a)
	if a.Attached(BeforeForwardOpaque) != 1 {
		t.Errorf("attached = %d, want 1", a.Attached(BeforeForwardOpaque))
	}

	set.Activate(b)
	if a.Attached(BeforeForwardOpaque) != 0 || b.Attached(BeforeForwardOpaque) != 1 {
		t.Error("Activate on a new host should move the buffers")
	}

	set.Deactivate()
	if set.Active() || b.Attached(BeforeForwardOpaque) != 0 {
		t.Error("Deactivate should detach")
	}
	if got := set.Buffers(); !slices.Equal(got, []string{"x"}) {
		t.Errorf("Buffers = %v", got)
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := Config{Style: "GRAPH", Path: "deferred"}
	if err := cfg.Validate(); err != nil || cfg.Style != StyleGraph {
		t.Errorf("Validate = %v, style %q", err, cfg.Style)
	}

	cfg = Config{Style: "retained"}
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidStyle) {
		t.Errorf("err = %v, want ErrInvalidStyle", err)
	}

	cfg = Config{Path: "tiled"}
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("err = %v, want ErrInvalidPath", err)
	}
}
