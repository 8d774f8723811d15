package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/teslashibe/go-foveate/pkg/gaze"
	"github.com/teslashibe/go-foveate/pkg/pipeline"
	"github.com/teslashibe/go-foveate/pkg/quality"
	"github.com/teslashibe/go-foveate/pkg/region"
	"github.com/teslashibe/go-foveate/pkg/vrs"
	"github.com/teslashibe/go-foveate/pkg/zone"
	"gopkg.in/yaml.v3"
)

// Quality selects the startup presets and the session camera.
type Quality struct {
	// Preset is a rate preset name or number.
	// Default: "highest-performance"
	Preset string `yaml:"preset" json:"preset"`

	// Pattern is a pattern preset name or number.
	// Default: "narrow"
	Pattern string `yaml:"pattern" json:"pattern"`

	// FovY is the vertical field of view in degrees.
	// Default: 60
	FovY float64 `yaml:"fov_y" json:"fov_y"`

	// Aspect is width / height.
	// Default: 16/9
	Aspect float64 `yaml:"aspect" json:"aspect"`

	// Rates are the inner, middle and peripheral shading rates used by the
	// custom rate preset, by name or number.
	// Default: ["1x1", "2x2", "4x4"]
	Rates [zone.Count]string `yaml:"rates" json:"rates"`

	// Radii are the inner, middle and peripheral radii used by the custom
	// pattern. Values outside [0.01, 10] are clamped.
	// Default: .25, .33, 1
	Radii [zone.Count]zone.Radii `yaml:"radii" json:"radii"`
}

// CustomRates parses Rates.
func (q Quality) CustomRates() ([zone.Count]quality.ShadingRate, error) {
	var rates [zone.Count]quality.ShadingRate
	for i, name := range q.Rates {
		r, err := quality.ParseShadingRate(name)
		if err != nil {
			return rates, fmt.Errorf("%s rate: %w", zone.Zone(i), err)
		}
		rates[i] = r
	}
	return rates, nil
}

// Overlay sizes the zone overlay.
type Overlay struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	Width   int  `yaml:"width" json:"width"`
	Height  int  `yaml:"height" json:"height"`
}

// Scene describes the demo grid of tracked meshes.
type Scene struct {
	Cols    int     `yaml:"cols" json:"cols"`
	Rows    int     `yaml:"rows" json:"rows"`
	Spacing float32 `yaml:"spacing" json:"spacing"`
	LODs    int     `yaml:"lods" json:"lods"`
}

// Dashboard configures the web dashboard.
type Dashboard struct {
	// Enabled starts the dashboard.
	// Default: true
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Port is the HTTP listen port.
	// Default: "8088"
	Port string `yaml:"port" json:"port"`

	// BroadcastInterval is how often websocket clients are updated.
	// Default: 100ms
	BroadcastInterval time.Duration `yaml:"broadcast_interval" json:"broadcast_interval"`
}

// App is the complete configuration of the foveate command.
type App struct {
	Gaze      gaze.Config     `yaml:"gaze" json:"gaze"`
	Region    region.Config   `yaml:"region" json:"region"`
	Quality   Quality         `yaml:"quality" json:"quality"`
	Backend   vrs.Config      `yaml:"backend" json:"backend"`
	Pipeline  pipeline.Config `yaml:"pipeline" json:"pipeline"`
	Overlay   Overlay         `yaml:"overlay" json:"overlay"`
	Scene     Scene           `yaml:"scene" json:"scene"`
	Dashboard Dashboard       `yaml:"dashboard" json:"dashboard"`
}

// Default returns the configuration used when no file is present.
func Default() App {
	return App{
		Gaze:   gaze.DefaultConfig(),
		Region: region.DefaultConfig(),
		Quality: Quality{
			Preset:  "highest-performance",
			Pattern: "narrow",
			FovY:    60,
			Aspect:  16.0 / 9.0,
			Rates:   [zone.Count]string{"1x1", "2x2", "4x4"},
			Radii: [zone.Count]zone.Radii{
				{X: 0.25, Y: 0.25},
				{X: 0.33, Y: 0.33},
				{X: 1.0, Y: 1.0},
			},
		},
		Backend:  vrs.DefaultConfig(),
		Pipeline: pipeline.DefaultConfig(),
		Overlay: Overlay{
			Enabled: true,
			Width:   1280,
			Height:  720,
		},
		Scene: Scene{
			Cols:    5,
			Rows:    3,
			Spacing: 1.5,
			LODs:    3,
		},
		Dashboard: Dashboard{
			Enabled:           true,
			Port:              DefaultDashboardPort,
			BroadcastInterval: 100 * time.Millisecond,
		},
	}
}

// Load reads a YAML file over Default. A missing file yields the defaults.
func Load(path string) (App, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg := Default()
		return cfg, cfg.Validate()
	}
	if err != nil {
		return App{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over Default and validates the result.
func Parse(data []byte) (App, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return App{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return App{}, err
	}
	return cfg, nil
}

// Validate checks every section and fills defaults.
func (a *App) Validate() error {
	if err := a.Gaze.Validate(); err != nil {
		return fmt.Errorf("gaze: %w", err)
	}
	if err := a.Region.Validate(); err != nil {
		return fmt.Errorf("region: %w", err)
	}
	if err := a.Backend.Validate(); err != nil {
		return fmt.Errorf("backend: %w", err)
	}
	if err := a.Pipeline.Validate(); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	if _, err := quality.ParseRatePreset(a.Quality.Preset); err != nil {
		return fmt.Errorf("quality: %w", err)
	}
	if _, err := quality.ParsePatternPreset(a.Quality.Pattern); err != nil {
		return fmt.Errorf("quality: %w", err)
	}
	if _, err := a.Quality.CustomRates(); err != nil {
		return fmt.Errorf("quality: %w", err)
	}
	if a.Quality.FovY <= 0 || a.Quality.FovY >= 180 {
		return fmt.Errorf("quality: fov_y %v out of range", a.Quality.FovY)
	}
	if a.Quality.Aspect <= 0 {
		return fmt.Errorf("quality: aspect must be positive")
	}
	if a.Scene.Cols < 0 || a.Scene.Rows < 0 || a.Scene.LODs < 1 {
		return fmt.Errorf("scene: invalid grid %dx%d with %d lods", a.Scene.Cols, a.Scene.Rows, a.Scene.LODs)
	}
	if a.Dashboard.Port == "" {
		a.Dashboard.Port = DefaultDashboardPort
	}
	return nil
}

// ApplyEnv overrides ports from the environment.
func (a *App) ApplyEnv() {
	if v := os.Getenv("FOVEATE_GAZE_PORT"); v != "" {
		a.Gaze.Port = GazePort()
	}
	if v := os.Getenv("FOVEATE_DASHBOARD_PORT"); v != "" {
		a.Dashboard.Port = v
	}
}
