package region

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/teslashibe/go-foveate/pkg/gaze"
	"github.com/teslashibe/go-foveate/pkg/overlay"
	"github.com/teslashibe/go-foveate/pkg/quality"
	"github.com/teslashibe/go-foveate/pkg/stats"
	"github.com/teslashibe/go-foveate/pkg/zone"
)

// GazeReader returns the current gaze sample. *gaze.Switcher and every
// gaze.Source satisfy it.
type GazeReader interface {
	Direction() gaze.Sample
}

// Deps are the collaborators a Controller drives. Only Gaze is required.
type Deps struct {
	Gaze    GazeReader
	Profile *quality.Profile
	Scene   Scene
	Overlay *overlay.Visualizer
	Stats   *stats.Collector
}

// TickReport summarizes one controller tick.
type TickReport struct {
	Gaze   gaze.Sample `json:"gaze"`
	Center mgl64.Vec2  `json:"center"`

	// Zones counts objects per zone; the last entry is outside every zone.
	Zones []int `json:"zones"`

	Objects       int           `json:"objects"`
	Culled        int           `json:"culled"`
	ShadingPushed bool          `json:"shading_pushed"`
	OverlayMoved  bool          `json:"overlay_moved"`
	Duration      time.Duration `json:"duration_ns"`
}

// Controller ties gaze input to per-object detail and per-zone shading.
type Controller struct {
	deps   Deps
	logger *slog.Logger
	now    func() time.Time

	mu   sync.RWMutex
	cfg  Config
	last TickReport

	runMu   sync.Mutex
	running bool
}

// New creates a controller. cfg is validated; invalid configurations
// fall back to DefaultConfig.
func New(cfg Config, deps Deps, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		logger.Warn("invalid region config, using defaults", "error", err)
		cfg = DefaultConfig()
	}

	c := &Controller{
		deps:   deps,
		logger: logger,
		now:    time.Now,
		cfg:    cfg,
	}
	c.checkZones(cfg)
	c.syncOverlay(cfg)
	return c
}

// Config returns a copy of the current configuration.
func (c *Controller) Config() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg
}

// SetConfig replaces the configuration. It takes effect on the next tick.
func (c *Controller) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	c.cfg = cfg
	c.mu.Unlock()

	c.checkZones(cfg)
	c.syncOverlay(cfg)
	return nil
}

// SetRadii replaces the zone radii and updates the overlay.
func (c *Controller) SetRadii(radii []zone.Radii) error {
	cfg := c.Config()
	cfg.Radii = append([]zone.Radii(nil), radii...)
	return c.SetConfig(cfg)
}

// SetMode switches between LOD, shading, or both.
func (c *Controller) SetMode(mode Mode) error {
	cfg := c.Config()
	cfg.Mode = mode
	return c.SetConfig(cfg)
}

// Last returns the report of the most recent tick.
func (c *Controller) Last() TickReport {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last
}

func (c *Controller) checkZones(cfg Config) {
	if !cfg.Increasing() {
		c.logger.Warn("zone radii do not increase outward; inner zones may shadow outer ones",
			"radii", cfg.Radii, "distances", cfg.Distances)
	}
}

func (c *Controller) syncOverlay(cfg Config) {
	if c.deps.Overlay == nil || cfg.UseDistance || len(cfg.Radii) < 2 {
		return
	}
	c.deps.Overlay.UpdateRadii(cfg.Radii[0], cfg.Radii[1])
}

// Tick runs one update: read gaze, push shading, classify objects, move
// the overlay. Ticks must not overlap.
func (c *Controller) Tick() TickReport {
	start := c.now()
	cfg := c.Config()

	var sample gaze.Sample
	if c.deps.Gaze != nil {
		sample = c.deps.Gaze.Direction()
	}
	if !sample.Valid() {
		sample = gaze.Sample{}
	}

	report := TickReport{
		Gaze:  sample,
		Zones: make([]int, cfg.zones()+1),
	}

	if cfg.Mode.shading() && c.deps.Profile != nil {
		report.ShadingPushed = c.deps.Profile.SetGaze(sample.Direction(cfg.GazeScaleX, cfg.GazeScaleY))
	}

	flipped := cfg.Classify.Apply(sample)
	report.Center = mgl64.Vec2{flipped.X, flipped.Y}

	if cfg.Mode.lod() && c.deps.Scene != nil {
		c.classify(cfg, report.Center, &report)
	}

	if o := c.deps.Overlay; o != nil && o.Enabled() {
		o.SetCenter(cfg.Overlay.Apply(sample))
		report.OverlayMoved = true
	}

	report.Duration = c.now().Sub(start)

	if c.deps.Stats != nil {
		c.deps.Stats.Frame(stats.Tick{
			Duration: report.Duration,
			Objects:  report.Objects,
			Zones:    report.Zones,
		})
	}

	c.mu.Lock()
	c.last = report
	c.mu.Unlock()
	return report
}

// classify forces a detail level on every scene object. The previous
// level is overwritten, never reset first.
func (c *Controller) classify(cfg Config, center mgl64.Vec2, report *TickReport) {
	outside := cfg.zones()

	for _, obj := range c.deps.Scene.Objects() {
		report.Objects++

		idx := outside
		if p, ok := cfg.Camera.Project(obj.Position()); ok {
			if cfg.UseDistance {
				idx = zone.ClassifyDistance(p, center, cfg.Distances)
			} else {
				idx = zone.Classify(p, center, cfg.Radii)
			}
		} else {
			report.Culled++
		}
		report.Zones[idx]++

		lods := obj.LODCount()
		if lods <= 0 {
			continue
		}
		obj.ForceLOD(zone.Level(idx, cfg.Levels, lods))
	}
}

// Run ticks every TickInterval until ctx is cancelled. Calling Run while
// another Run is active returns immediately.
func (c *Controller) Run(ctx context.Context) {
	c.runMu.Lock()
	if c.running {
		c.runMu.Unlock()
		return
	}
	c.running = true
	c.runMu.Unlock()

	defer func() {
		c.runMu.Lock()
		c.running = false
		c.runMu.Unlock()
	}()

	cfg := c.Config()
	ticker := time.NewTicker(cfg.TickInterval)
	defer ticker.Stop()

	c.logger.Info("region controller started",
		"mode", cfg.Mode,
		"interval", cfg.TickInterval,
		"zones", cfg.zones())

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("region controller stopped")
			return
		case <-ticker.C:
			c.Tick()
		}
	}
}

// Running reports whether Run is active.
func (c *Controller) Running() bool {
	c.runMu.Lock()
	defer c.runMu.Unlock()
	return c.running
}
