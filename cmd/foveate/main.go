// foveate: gaze-contingent foveated rendering core with a web dashboard
//
// Reads gaze from the configured provider, classifies a demo scene into
// detail zones, drives the software shading backend, and serves the
// dashboard on FOVEATE_DASHBOARD_PORT.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/teslashibe/go-foveate/internal/config"
	"github.com/teslashibe/go-foveate/internal/engine"
	"github.com/teslashibe/go-foveate/internal/log"
	"github.com/teslashibe/go-foveate/pkg/debug"
	"github.com/teslashibe/go-foveate/pkg/gaze"
	_ "github.com/teslashibe/go-foveate/pkg/gaze/webcam"
	"github.com/teslashibe/go-foveate/pkg/pipeline"
	"github.com/teslashibe/go-foveate/pkg/region"
)

var (
	configPath  = flag.String("config", "", "YAML config file (default $FOVEATE_CONFIG or foveate.yaml)")
	method      = flag.String("gaze", "", "Override the gaze provider (pointer, plugin, network, remote, webcam)")
	debugFlag   = flag.Bool("debug", false, "Enable debug logging")
	debugGaze   = flag.Bool("debug-gaze", false, "Log every gaze sample")
	statusEvery = flag.Duration("status", 5*time.Second, "Status log interval (0 disables)")
)

func main() {
	flag.Parse()

	debug.Enabled = *debugFlag
	debug.Gaze = *debugGaze

	level := config.LogLevel()
	if *debugFlag {
		level = "debug"
	}
	log.Init(level)
	logger := log.L()

	path := *configPath
	if path == "" {
		path = config.ConfigPath(config.DefaultConfigFile)
	}
	cfg, err := config.Load(path)
	if err != nil {
		logger.Error("config", "path", path, "error", err)
		os.Exit(1)
	}
	cfg.ApplyEnv()
	if *method != "" {
		cfg.Gaze.Method = gaze.Method(*method)
	}

	fmt.Println()
	fmt.Println("👁  Foveate")
	fmt.Printf("   Gaze:      %s\n", cfg.Gaze.Method)
	fmt.Printf("   Pipeline:  %s / %s\n", cfg.Pipeline.Style, cfg.Pipeline.Path)
	if cfg.Dashboard.Enabled {
		fmt.Printf("   Dashboard: http://localhost:%s\n", cfg.Dashboard.Port)
	}
	fmt.Println()

	e, err := engine.New(cfg, nil, logger)
	if err != nil {
		logger.Error("engine", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := e.Start(ctx); err != nil {
		logger.Error("start", "error", err)
		e.Close()
		os.Exit(1)
	}

	var lastStatus time.Time
	e.Run(ctx, func(report region.TickReport, trace pipeline.Trace) {
		debug.GazeLog("👁  gaze %.3f, %.3f zones %v\n", report.Gaze.X, report.Gaze.Y, report.Zones)

		if *statusEvery <= 0 || time.Since(lastStatus) < *statusEvery {
			return
		}
		lastStatus = time.Now()
		snap := e.Profile.Snapshot()
		logger.Info("status",
			"fps", e.Stats.FPS(),
			"gaze", e.Switcher.Active(),
			"preset", snap.RatePresetName,
			"pattern", snap.PatternName,
			"zones", report.Zones,
			"issued", len(trace.Issued()))
	})

	fmt.Println("\n👋 Shutting down...")
	e.Close()
	fmt.Println("✅ Goodbye!")
}
