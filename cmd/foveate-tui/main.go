// foveate-tui: terminal view of the foveation zones
//
// The mouse drives pointer gaze. Keys: p cycles rate presets, f cycles
// foveation patterns, v toggles the shading brackets, d toggles forward
// and deferred rendering, o toggles the overlay, q quits.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/teslashibe/go-foveate/internal/config"
	"github.com/teslashibe/go-foveate/internal/engine"
	"github.com/teslashibe/go-foveate/internal/log"
	"github.com/teslashibe/go-foveate/pkg/pipeline"
	"github.com/teslashibe/go-foveate/pkg/quality"
	"github.com/teslashibe/go-foveate/pkg/terminal"
	"github.com/teslashibe/go-foveate/pkg/zone"
)

var (
	configPath = flag.String("config", "", "YAML config file (default $FOVEATE_CONFIG or foveate.yaml)")
	logPath    = flag.String("log", "", "Write logs to this file (default: discard)")
	dashboard  = flag.Bool("dashboard", false, "Also serve the web dashboard")
)

func main() {
	flag.Parse()

	var out io.Writer = io.Discard
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open log: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}
	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: log.ParseLevel(config.LogLevel()),
	}))

	path := *configPath
	if path == "" {
		path = config.ConfigPath(config.DefaultConfigFile)
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	cfg.ApplyEnv()
	cfg.Dashboard.Enabled = *dashboard
	cfg.Region.Overlay = cfg.Gaze.AxesFor(cfg.Gaze.Method)

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "screen: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "screen: %v\n", err)
		os.Exit(1)
	}
	view := terminal.New(screen)
	defer view.Close()

	e, err := engine.New(cfg, view.Pointer(), logger)
	if err != nil {
		view.Close()
		fmt.Fprintf(os.Stderr, "engine: %v\n", err)
		os.Exit(1)
	}
	defer e.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := e.Start(ctx); err != nil {
		logger.Error("start", "error", err)
		return
	}

	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	ticker := time.NewTicker(e.Controller.Config().TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			if apply(e, view.HandleEvent(ev)) {
				return
			}
		case <-ticker.C:
			_, trace, err := e.Frame()
			if err != nil {
				logger.Error("frame failed", "error", err)
				continue
			}
			view.Draw(e.Overlay.State(), statusLine(e, trace))
		}
	}
}

// apply performs a key action and reports whether to quit.
func apply(e *engine.Engine, action terminal.Action) bool {
	switch action {
	case terminal.ActionQuit:
		return true
	case terminal.ActionNextPreset:
		next := e.Profile.CurrentPreset()%quality.HighestQuality + 1
		e.Profile.ApplyPreset(next)
	case terminal.ActionNextPattern:
		next := e.Profile.CurrentPattern()%quality.PatternNarrow + 1
		e.Profile.ApplyPattern(next)
		e.Controller.SetRadii([]zone.Radii{e.Profile.Radii(zone.Inner), e.Profile.Radii(zone.Middle)})
	case terminal.ActionTogglePipeline:
		e.Renderer.Toggle()
	case terminal.ActionToggleOverlay:
		e.Overlay.SetEnabled(!e.Overlay.Enabled())
	case terminal.ActionTogglePath:
		next := pipeline.PathDeferred
		if e.Renderer.Scheduler().Path() == pipeline.PathDeferred {
			next = pipeline.PathForward
		}
		e.Renderer.SetPath(next)
	}
	return false
}

func statusLine(e *engine.Engine, trace pipeline.Trace) string {
	snap := e.Profile.Snapshot()
	brackets := "off"
	if e.Renderer.Scheduler().Enabled() {
		brackets = "on"
	}
	last := e.Controller.Last()
	return fmt.Sprintf("%s | fps %d | rates %s | pattern %s | vrs %s (%d issued) | %s | zones %v",
		e.Switcher.Active(),
		e.Stats.FPS(),
		snap.RatePresetName,
		snap.PatternName,
		brackets,
		len(trace.Issued()),
		e.Renderer.Scheduler().Path(),
		last.Zones)
}
