package pipeline

import (
	"fmt"
	"slices"
	"sync"

	"github.com/teslashibe/go-foveate/pkg/quality"
)

// StepKind identifies a trace entry.
type StepKind int

const (
	StepEvent StepKind = iota
	StepIssue
	StepClear
	StepDraw
)

// Step is one entry of a frame trace.
type Step struct {
	Kind   StepKind `json:"kind"`
	Event  Event    `json:"event"`
	Detail string   `json:"detail"`

	// Dropped is set when the backend did not accept an issued event.
	Dropped bool `json:"dropped,omitempty"`
}

func (s Step) String() string {
	switch s.Kind {
	case StepEvent:
		return s.Event.String()
	case StepIssue:
		if s.Dropped {
			return fmt.Sprintf("issue %s@%s (dropped)", s.Detail, s.Event)
		}
		return fmt.Sprintf("issue %s@%s", s.Detail, s.Event)
	case StepClear:
		return fmt.Sprintf("clear %s@%s", s.Detail, s.Event)
	case StepDraw:
		return "draw " + s.Detail
	default:
		return fmt.Sprintf("step(%d)", int(s.Kind))
	}
}

// Trace is the ordered record of one rendered frame.
type Trace []Step

// Strings formats every step.
func (t Trace) Strings() []string {
	out := make([]string, len(t))
	for i, s := range t {
		out[i] = s.String()
	}
	return out
}

// Issued returns only the backend events, formatted as "event@hook".
func (t Trace) Issued() []string {
	var out []string
	for _, s := range t {
		if s.Kind == StepIssue {
			out = append(out, s.String()[len("issue "):])
		}
	}
	return out
}

// PassContext is handed to command buffers and graph passes while they
// execute.
type PassContext struct {
	event  Event
	issuer Issuer
	trace  *Trace
}

// Event returns the hook point being executed.
func (pc *PassContext) Event() Event {
	return pc.event
}

// Issue forwards ev to the backend and records it.
func (pc *PassContext) Issue(ev quality.Event) {
	ok := pc.issuer != nil && pc.issuer.Issue(ev)
	*pc.trace = append(*pc.trace, Step{Kind: StepIssue, Event: pc.event, Detail: ev.String(), Dropped: !ok})
}

// Clear records a render target clear.
func (pc *PassContext) Clear(target string) {
	*pc.trace = append(*pc.trace, Step{Kind: StepClear, Event: pc.event, Detail: target})
}

// Run executes a recorded command.
func (pc *PassContext) Run(cmd Command) {
	switch cmd.Kind {
	case CommandIssue:
		pc.Issue(cmd.Event)
	case CommandClear:
		pc.Clear(cmd.Target)
	}
}

// Frame is an in-memory pipeline. It implements Host and renders a
// frame by walking the timeline of its path, running attached command
// buffers and compiled graph passes at each event. It is goroutine-safe.
type Frame struct {
	issuer Issuer

	mu      sync.Mutex
	path    Path
	buffers map[Event][]*CommandBuffer
	hooks   []func(Phase)
	frames  int64
	last    Trace
}

// NewFrame creates a frame for path that issues backend events through
// issuer.
func NewFrame(path Path, issuer Issuer) *Frame {
	return &Frame{
		issuer:  issuer,
		path:    path,
		buffers: make(map[Event][]*CommandBuffer),
	}
}

// AddCommandBuffer implements Host.
func (f *Frame) AddCommandBuffer(ev Event, cb *CommandBuffer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if slices.Contains(f.buffers[ev], cb) {
		return
	}
	f.buffers[ev] = append(f.buffers[ev], cb)
}

// RemoveCommandBuffer implements Host.
func (f *Frame) RemoveCommandBuffer(ev Event, cb *CommandBuffer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buffers[ev] = slices.DeleteFunc(f.buffers[ev], func(b *CommandBuffer) bool {
		return b == cb
	})
}

// Attached returns the number of command buffers attached at ev.
func (f *Frame) Attached(ev Event) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.buffers[ev])
}

// OnPhase registers fn to be called while each geometry phase draws.
func (f *Frame) OnPhase(fn func(Phase)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hooks = append(f.hooks, fn)
}

// SetPath switches the rendering path for subsequent frames.
func (f *Frame) SetPath(p Path) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.path = p
}

// Path returns the rendering path.
func (f *Frame) Path() Path {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.path
}

// Render draws one frame. g may be nil when no graph passes are used.
func (f *Frame) Render(g *Graph) (Trace, error) {
	var passes []Pass
	if g != nil {
		var err error
		if passes, err = g.Compile(); err != nil {
			return nil, err
		}
	}

	f.mu.Lock()
	path := f.path
	buffers := make(map[Event][]*CommandBuffer, len(f.buffers))
	for ev, list := range f.buffers {
		buffers[ev] = slices.Clone(list)
	}
	hooks := slices.Clone(f.hooks)
	f.mu.Unlock()

	var trace Trace
	fire := func(ev Event) {
		trace = append(trace, Step{Kind: StepEvent, Event: ev})
		pc := &PassContext{event: ev, issuer: f.issuer, trace: &trace}
		for _, cb := range buffers[ev] {
			cb.Run(pc)
		}
		for _, p := range passes {
			if p.Event == ev {
				p.Execute(pc)
			}
		}
	}

	for _, ph := range Phases(path) {
		fire(ph.Before)
		trace = append(trace, Step{Kind: StepDraw, Event: ph.Before, Detail: ph.Name})
		for _, fn := range hooks {
			fn(ph)
		}
		fire(ph.After)
	}

	f.mu.Lock()
	f.frames++
	f.last = trace
	f.mu.Unlock()
	return trace, nil
}

// Frames returns the number of rendered frames.
func (f *Frame) Frames() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frames
}

// Last returns the trace of the most recent frame.
func (f *Frame) Last() Trace {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.last)
}
