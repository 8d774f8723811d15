// Package engine assembles the foveation components from an App config.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/teslashibe/go-foveate/internal/config"
	"github.com/teslashibe/go-foveate/pkg/debug"
	"github.com/teslashibe/go-foveate/pkg/gaze"
	"github.com/teslashibe/go-foveate/pkg/ingest"
	"github.com/teslashibe/go-foveate/pkg/overlay"
	"github.com/teslashibe/go-foveate/pkg/pipeline"
	"github.com/teslashibe/go-foveate/pkg/quality"
	"github.com/teslashibe/go-foveate/pkg/region"
	"github.com/teslashibe/go-foveate/pkg/stats"
	"github.com/teslashibe/go-foveate/pkg/vrs"
	"github.com/teslashibe/go-foveate/pkg/web"
)

// Engine owns every running component.
type Engine struct {
	Config     config.App
	Backend    *vrs.Backend
	Session    *quality.Session
	Profile    *quality.Profile
	Switcher   *gaze.Switcher
	Trackers   *ingest.Hub
	Scene      *region.StaticScene
	Overlay    *overlay.Visualizer
	Controller *region.Controller
	Renderer   *pipeline.Renderer
	Stats      *stats.Collector
	Dashboard  *web.Server
	Tracker    *gaze.SimulatedTracker

	logger *slog.Logger
}

// New builds the components. pointer backs the pointer provider and may
// be nil, in which case a centred static pointer is used.
func New(cfg config.App, pointer gaze.Pointer, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if pointer == nil {
		w, h := float64(cfg.Overlay.Width), float64(cfg.Overlay.Height)
		pointer = &gaze.StaticPointer{X: w / 2, Y: h / 2, Width: w, Height: h}
	}

	e := &Engine{
		Config:  cfg,
		Backend: vrs.New(cfg.Backend, logger),
		Stats:   stats.NewCollector(0),
		Tracker: gaze.NewSimulatedTracker(time.Second, uint64(time.Now().UnixNano())),
		logger:  logger.With("component", "engine"),
	}

	e.Stats.OnUpdate(func(s stats.Snapshot) {
		e.logger.Debug("frame stats",
			"fps", s.FPS,
			"avg_tick", s.AverageTick,
			"max_tick", s.MaxTick,
			"zones", s.Zones)
	})

	e.Session = quality.NewSession(e.Backend, logger)
	e.Profile = quality.NewProfile(e.Session, logger)

	mailbox := gaze.NewMailbox()
	e.Trackers = ingest.NewHub(mailbox, logger)
	e.Switcher = gaze.NewSwitcher(gaze.FactoryWith(gaze.Deps{
		Pointer: pointer,
		Tracker: e.Tracker,
		Mailbox: mailbox,
	}, logger), logger)

	e.Overlay = overlay.New(cfg.Overlay.Width, cfg.Overlay.Height)
	e.Overlay.SetEnabled(cfg.Overlay.Enabled)

	e.Scene = region.GridScene(cfg.Scene.Cols, cfg.Scene.Rows, cfg.Scene.Spacing, cfg.Scene.LODs)
	e.Controller = region.New(cfg.Region, region.Deps{
		Gaze:    e.Switcher,
		Profile: e.Profile,
		Scene:   e.Scene,
		Overlay: e.Overlay,
		Stats:   e.Stats,
	}, logger)

	r, err := pipeline.NewRenderer(cfg.Pipeline, e.Session, logger)
	if err != nil {
		return nil, err
	}
	e.Renderer = r

	if cfg.Dashboard.Enabled {
		e.Dashboard = web.NewServer(cfg.Dashboard.Port, web.Deps{
			Profile:    e.Profile,
			Backend:    e.Backend,
			Switcher:   e.Switcher,
			Controller: e.Controller,
			Overlay:    e.Overlay,
			Renderer:   e.Renderer,
			Stats:      e.Stats,
			Trackers:   e.Trackers,
		}, logger)
	}
	return e, nil
}

// Start opens the shading session, applies the startup presets, and
// starts the configured gaze provider. A session that fails to open
// leaves foveation disabled without failing Start.
func (e *Engine) Start(ctx context.Context) error {
	q := e.Config.Quality
	if err := e.Session.Start(q.FovY, q.Aspect); err != nil {
		e.logger.Warn("foveated shading unavailable", "error", err)
	}
	rates, err := q.CustomRates()
	if err != nil {
		return fmt.Errorf("custom rates: %w", err)
	}
	e.Profile.SetCustom(rates, q.Radii)
	if err := e.Profile.ApplyPresetName(q.Preset); err != nil {
		return fmt.Errorf("rate preset: %w", err)
	}
	if err := e.Profile.ApplyPatternName(q.Pattern); err != nil {
		return fmt.Errorf("pattern preset: %w", err)
	}
	if e.Profile.Sync() {
		snap := e.Profile.Snapshot()
		debug.Log("🎯 profile synced: rates %s, pattern %s\n", snap.RatePresetName, snap.PatternName)
	}

	if err := e.Switcher.Switch(ctx, e.Config.Gaze); err != nil {
		return fmt.Errorf("gaze provider: %w", err)
	}

	if e.Dashboard != nil {
		e.Dashboard.StartAsync()
		go e.Dashboard.Run(ctx, e.Config.Dashboard.BroadcastInterval)
	}
	return nil
}

// Frame runs one controller tick followed by one rendered frame.
func (e *Engine) Frame() (region.TickReport, pipeline.Trace, error) {
	report := e.Controller.Tick()
	trace, err := e.Renderer.Render()
	return report, trace, err
}

// Run renders frames every tick interval until ctx is cancelled.
// onFrame, when non-nil, is called after each frame.
func (e *Engine) Run(ctx context.Context, onFrame func(region.TickReport, pipeline.Trace)) {
	ticker := time.NewTicker(e.Controller.Config().TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report, trace, err := e.Frame()
			if err != nil {
				e.logger.Error("frame failed", "error", err)
				continue
			}
			if onFrame != nil {
				onFrame(report, trace)
			}
		}
	}
}

// Close stops the provider, closes the session, and shuts the dashboard down.
func (e *Engine) Close() {
	e.Switcher.Close()
	e.Session.Close()
	if e.Dashboard != nil {
		if err := e.Dashboard.Shutdown(); err != nil {
			e.logger.Warn("dashboard shutdown", "error", err)
		}
	}
}
