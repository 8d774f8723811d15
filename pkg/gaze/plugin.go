package gaze

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// pluginRange is how far outside [-1, 1] a native reading may drift before
// it is treated as a spurious read rather than clamped.
const pluginRange = 1.5

// Tracker is a handle to a native eye-tracking service.
type Tracker interface {
	// Open starts the tracking service.
	Open() error

	// Close stops the tracking service.
	Close()

	// Read returns the latest raw gaze coordinates.
	// ok is false when the service has no valid reading.
	Read() (x, y float64, ok bool)
}

// PluginSource queries a native Tracker synchronously every tick.
type PluginSource struct {
	tracker Tracker
	axes    AxisConvention
	logger  *slog.Logger

	mu     sync.Mutex
	opened bool
	last   Sample

	received atomic.Int64
	rejected atomic.Int64
}

// NewPluginSource creates a gaze source over a native tracker.
func NewPluginSource(t Tracker, axes AxisConvention, logger *slog.Logger) *PluginSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &PluginSource{tracker: t, axes: axes, logger: logger}
}

// Initialize opens the tracker exactly once.
// A second call without an intervening Cleanup is a no-op.
func (p *PluginSource) Initialize(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.opened {
		return nil
	}
	if p.tracker == nil {
		return &InitError{Method: MethodPlugin, Err: ErrMissingDependency}
	}
	if err := p.tracker.Open(); err != nil {
		return &InitError{Method: MethodPlugin, Err: err}
	}

	p.opened = true
	p.last = Sample{}
	p.logger.Info("gaze plugin opened")
	return nil
}

// Cleanup closes the tracker. Without a prior Initialize it does nothing.
func (p *PluginSource) Cleanup() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.opened {
		return
	}
	p.tracker.Close()
	p.opened = false
	p.logger.Info("gaze plugin closed")
}

// Direction queries the tracker. Invalid reads return the last good sample.
func (p *PluginSource) Direction() Sample {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.opened {
		return p.last
	}

	x, y, ok := p.tracker.Read()
	s := Sample{X: x, Y: y}
	if !ok || !s.Valid() || abs(x) > pluginRange || abs(y) > pluginRange {
		p.rejected.Add(1)
		return p.last
	}

	p.last = p.axes.Apply(s.Clamp())
	p.received.Add(1)
	return p.last
}

// Name returns "plugin".
func (p *PluginSource) Name() string {
	return string(MethodPlugin)
}

// Stats returns provider counters.
func (p *PluginSource) Stats() SourceStats {
	p.mu.Lock()
	running := p.opened
	p.mu.Unlock()

	return SourceStats{
		Received: p.received.Load(),
		Rejected: p.rejected.Load(),
		Running:  running,
		Method:   string(MethodPlugin),
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
