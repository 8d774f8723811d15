package pipeline

import (
	"log/slog"
	"sync"
)

// Scheduler toggles the foveation brackets. Enable and Disable are
// idempotent.
type Scheduler interface {
	Enable()
	Disable()
	Enabled() bool
	SetPath(p Path)
	Path() Path
}

// ImmediateScheduler attaches command buffers to a Host for every frame
// while enabled.
type ImmediateScheduler struct {
	host   Host
	logger *slog.Logger

	mu      sync.Mutex
	path    Path
	set     *BufferSet
	enabled bool
}

// NewImmediateScheduler creates a disabled scheduler for host.
func NewImmediateScheduler(host Host, path Path, logger *slog.Logger) *ImmediateScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImmediateScheduler{
		host:   host,
		logger: logger,
		path:   path,
		set:    buildSet(path),
	}
}

func buildSet(p Path) *BufferSet {
	set := NewBufferSet()
	for _, b := range brackets(p) {
		set.Add(b.event, &CommandBuffer{Name: b.name, Commands: b.commands})
	}
	return set
}

// Enable attaches the brackets.
func (s *ImmediateScheduler) Enable() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.enabled {
		return
	}
	s.set.Activate(s.host)
	s.enabled = true
	s.logger.Info("foveation brackets attached", "style", "immediate", "path", s.path, "buffers", s.set.Buffers())
}

// Disable detaches the brackets.
func (s *ImmediateScheduler) Disable() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enabled {
		return
	}
	s.set.Deactivate()
	s.enabled = false
	s.logger.Info("foveation brackets detached", "style", "immediate")
}

// Enabled reports whether the brackets are attached.
func (s *ImmediateScheduler) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// SetPath rebuilds the brackets for p, reattaching them if enabled.
func (s *ImmediateScheduler) SetPath(p Path) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p == s.path {
		return
	}
	s.set.Deactivate()
	s.path = p
	s.set = buildSet(p)
	if s.enabled {
		s.set.Activate(s.host)
	}
}

// Path returns the current rendering path.
func (s *ImmediateScheduler) Path() Path {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// GraphScheduler registers ForceKeep passes into each frame's graph while
// enabled.
type GraphScheduler struct {
	logger *slog.Logger

	mu      sync.Mutex
	path    Path
	enabled bool
}

// NewGraphScheduler creates a disabled graph scheduler.
func NewGraphScheduler(path Path, logger *slog.Logger) *GraphScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GraphScheduler{logger: logger, path: path}
}

// Enable starts registering passes on Record.
func (s *GraphScheduler) Enable() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.enabled {
		return
	}
	s.enabled = true
	s.logger.Info("foveation passes enabled", "style", "graph", "path", s.path)
}

// Disable stops registering passes.
func (s *GraphScheduler) Disable() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enabled {
		return
	}
	s.enabled = false
	s.logger.Info("foveation passes disabled", "style", "graph")
}

// Enabled reports whether passes are registered.
func (s *GraphScheduler) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// SetPath changes the path used by subsequent Record calls.
func (s *GraphScheduler) SetPath(p Path) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.path = p
}

// Path returns the current rendering path.
func (s *GraphScheduler) Path() Path {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// Record adds this frame's passes to g. It does nothing while disabled.
func (s *GraphScheduler) Record(g *Graph) {
	s.mu.Lock()
	enabled, path := s.enabled, s.path
	s.mu.Unlock()

	if !enabled {
		return
	}
	for _, b := range brackets(path) {
		g.AddPass(Pass{
			Name:      b.name,
			Event:     b.event,
			ForceKeep: true,
			Execute: func(pc *PassContext) {
				for _, cmd := range b.commands {
					pc.Run(cmd)
				}
			},
		})
	}
}
