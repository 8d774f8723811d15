// Package vrs is a software foveated-shading backend.
//
// It keeps the state a variable-rate-shading driver would hold (presets,
// custom per-zone rates and radii, the normalized gaze point) and applies
// it on the same events, so the rest of the system can run and be tested
// without a GPU.
package vrs

import (
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/teslashibe/go-foveate/pkg/quality"
	"github.com/teslashibe/go-foveate/pkg/zone"
)

// Config holds backend configuration.
type Config struct {
	// Available simulates whether a capable device is present.
	// OpenSession fails when false.
	// Default: true
	Available bool `yaml:"available" json:"available"`

	// StabilityThreshold is how far the normalized gaze must move on
	// either axis before the pending gaze point is replaced.
	// Default: 0.05
	StabilityThreshold float64 `yaml:"stability_threshold" json:"stability_threshold"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Available:          true,
		StabilityThreshold: 0.05,
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.StabilityThreshold < 0 {
		return fmt.Errorf("stability_threshold must be >= 0, got %v", c.StabilityThreshold)
	}
	return nil
}

// State is a snapshot of the backend.
type State struct {
	Open          bool                            `json:"open"`
	Active        bool                            `json:"active"`
	RatePreset    quality.RatePreset              `json:"rate_preset"`
	PatternPreset quality.PatternPreset           `json:"pattern_preset"`
	Rates         [zone.Count]quality.ShadingRate `json:"rates"`
	Radii         [zone.Count]zone.Radii          `json:"radii"`
	Gaze          [2]float64                      `json:"gaze"`
	Pending       [2]float64                      `json:"pending"`
	Timestamp     uint64                          `json:"timestamp"`
	TanHalfH      float64                         `json:"tan_half_h"`
	TanHalfV      float64                         `json:"tan_half_v"`
	Enables       int64                           `json:"enables"`
	Disables      int64                           `json:"disables"`
	Updates       int64                           `json:"updates"`
	GazeChanges   int64                           `json:"gaze_changes"`
}

// Backend implements quality.Backend in software.
type Backend struct {
	cfg    Config
	logger *slog.Logger

	mu            sync.Mutex
	open          bool
	active        bool
	tanH, tanV    float64
	ratePreset    quality.RatePreset
	patternPreset quality.PatternPreset
	rates         [zone.Count]quality.ShadingRate
	radii         [zone.Count]zone.Radii
	pending       mgl64.Vec2
	latched       mgl64.Vec2
	timestamp     uint64

	enables, disables, updates, gazeChanges int64
}

// New creates a software backend.
func New(cfg Config, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		cfg:           cfg,
		logger:        logger.With("component", "vrs"),
		tanH:          1,
		tanV:          1,
		ratePreset:    quality.HighestPerformance,
		patternPreset: quality.PatternNarrow,
		rates:         [zone.Count]quality.ShadingRate{quality.Rate1x1, quality.Rate1x2, quality.Rate2x2},
		radii: [zone.Count]zone.Radii{
			{X: 0.25, Y: 0.25},
			{X: 0.33, Y: 0.33},
			{X: 1.0, Y: 1.0},
		},
	}
}

// TanHalfFOV returns tan(fovY/2) and the matching horizontal value for
// a vertical field of view in degrees.
func TanHalfFOV(fovY, aspect float64) (tanH, tanV float64) {
	tanV = math.Tan(mgl64.DegToRad(fovY) / 2)
	return tanV * aspect, tanV
}

// NormalizeGaze projects a view-space gaze direction onto the image plane
// and scales it to the backend's normalized gaze location. X is negated.
func NormalizeGaze(dir mgl32.Vec3, tanH, tanV float64) mgl64.Vec2 {
	x, y, z := float64(dir.X()), float64(dir.Y()), float64(dir.Z())
	nx := (x / z) / tanH
	ny := (y / z) / tanV
	return mgl64.Vec2{-nx / 2, ny / 2}
}

// OpenSession implements quality.Backend.
func (b *Backend) OpenSession(fovY, aspect float64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.cfg.Available {
		b.logger.Warn("no foveation-capable device")
		return false
	}
	b.tanH, b.tanV = TanHalfFOV(fovY, aspect)
	b.open = true
	b.logger.Debug("session opened", "tan_half_h", b.tanH, "tan_half_v", b.tanV)
	return true
}

// CloseSession implements quality.Backend.
func (b *Backend) CloseSession() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.open = false
	b.active = false
}

// SetRatePreset implements quality.Backend.
func (b *Backend) SetRatePreset(p quality.RatePreset) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ratePreset = p.Clamp()
}

// SetPatternPreset implements quality.Backend.
func (b *Backend) SetPatternPreset(p quality.PatternPreset) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.patternPreset = p.Clamp()
}

// SetZoneRate implements quality.Backend.
func (b *Backend) SetZoneRate(z zone.Zone, rate quality.ShadingRate) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rates[index(z)] = rate.Clamp()
}

// SetZoneRadii implements quality.Backend.
func (b *Backend) SetZoneRadii(z zone.Zone, rx, ry float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.radii[index(z)] = quality.ClampRadii(zone.Radii{X: rx, Y: ry})
}

// SetGazeDirection implements quality.Backend. The pending gaze point only
// moves when the new point differs by more than the stability threshold.
func (b *Backend) SetGazeDirection(dir mgl32.Vec3) {
	if dir.Z() == 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	next := NormalizeGaze(dir, b.tanH, b.tanV)
	t := b.cfg.StabilityThreshold
	if math.Abs(b.pending.X()-next.X()) <= t && math.Abs(b.pending.Y()-next.Y()) <= t {
		return
	}
	b.pending = next
	b.gazeChanges++
}

// Issue implements quality.Backend. Events are ignored without a session.
func (b *Backend) Issue(ev quality.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.open {
		return
	}

	switch ev {
	case quality.EventEnable:
		b.active = true
		b.enables++
	case quality.EventDisable:
		b.active = false
		b.disables++
	case quality.EventUpdateGaze:
		b.timestamp++
		b.latched = b.pending
		b.updates++
	}
}

// Active reports whether the shading pattern is applied.
func (b *Backend) Active() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active
}

// State returns a snapshot with preset tables resolved.
func (b *Backend) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := State{
		Open:          b.open,
		Active:        b.active,
		RatePreset:    b.ratePreset,
		PatternPreset: b.patternPreset,
		Rates:         b.rates,
		Radii:         b.radii,
		Gaze:          [2]float64(b.latched),
		Pending:       [2]float64(b.pending),
		Timestamp:     b.timestamp,
		TanHalfH:      b.tanH,
		TanHalfV:      b.tanV,
		Enables:       b.enables,
		Disables:      b.disables,
		Updates:       b.updates,
		GazeChanges:   b.gazeChanges,
	}
	if rates, ok := b.ratePreset.Rates(); ok {
		s.Rates = rates
	}
	if radii, ok := b.patternPreset.Radii(); ok {
		s.Radii = radii
	}
	return s
}

func index(z zone.Zone) zone.Zone {
	if z < zone.Inner || z > zone.Peripheral {
		return zone.Peripheral
	}
	return z
}
