package quality

import (
	"log/slog"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/teslashibe/go-foveate/pkg/zone"
)

// Profile is the per-zone quality state pushed to a backend session.
//
// Mutations are no-ops while the session is not Ready: they neither fail
// nor queue. Assigning a per-zone rate or radius switches the matching
// preset to custom so the value is not silently shadowed by a named preset.
type Profile struct {
	session *Session
	logger  *slog.Logger

	mu            sync.Mutex
	ratePreset    RatePreset
	patternPreset PatternPreset
	rates         [zone.Count]ShadingRate
	radii         [zone.Count]zone.Radii
	gaze          mgl32.Vec3
	updates       int64
}

// Snapshot is a read-only view of a Profile.
type Snapshot struct {
	Ready          bool                    `json:"ready"`
	SessionID      uuid.UUID               `json:"session_id"`
	RatePreset     RatePreset              `json:"rate_preset"`
	RatePresetName string                  `json:"rate_preset_name"`
	PatternPreset  PatternPreset           `json:"pattern_preset"`
	PatternName    string                  `json:"pattern_preset_name"`
	Rates          [zone.Count]ShadingRate `json:"rates"`
	RateNames      [zone.Count]string      `json:"rate_names"`
	CustomRates    [zone.Count]ShadingRate `json:"custom_rates"`
	Radii          [zone.Count]zone.Radii  `json:"radii"`
	CustomRadii    [zone.Count]zone.Radii  `json:"custom_radii"`
	Gaze           [3]float32              `json:"gaze"`
	Updates        int64                   `json:"updates"`
}

// NewProfile creates a profile with default values over session.
func NewProfile(session *Session, logger *slog.Logger) *Profile {
	if logger == nil {
		logger = slog.Default()
	}
	return &Profile{
		session:       session,
		logger:        logger.With("component", "profile"),
		ratePreset:    HighestPerformance,
		patternPreset: PatternNarrow,
		rates:         [zone.Count]ShadingRate{Rate1x1, Rate2x2, Rate4x4},
		radii: [zone.Count]zone.Radii{
			{X: 0.25, Y: 0.25},
			{X: 0.33, Y: 0.33},
			{X: 1.0, Y: 1.0},
		},
		gaze: mgl32.Vec3{0, 0, 1},
	}
}

// Session returns the session the profile writes through.
func (p *Profile) Session() *Session {
	return p.session
}

// update pushes EventUpdateGaze; callers hold p.mu and a Ready session.
func (p *Profile) update(b Backend) {
	b.Issue(EventUpdateGaze)
	p.updates++
}

// Sync pushes the whole profile to the backend, typically right after the
// session opens. It reports whether the session was Ready.
func (p *Profile) Sync() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.session.Do(func(b Backend) {
		p.pushRates(b)
		p.pushPattern(b)
		b.SetGazeDirection(p.gaze)
		p.update(b)
	})
}

func (p *Profile) pushRates(b Backend) {
	b.SetRatePreset(p.ratePreset)
	if p.ratePreset == RateCustom {
		for i, r := range p.rates {
			b.SetZoneRate(zone.Zone(i), r)
		}
	}
}

func (p *Profile) pushPattern(b Backend) {
	b.SetPatternPreset(p.patternPreset)
	if p.patternPreset == PatternCustom {
		for i, r := range p.radii {
			b.SetZoneRadii(zone.Zone(i), r.X, r.Y)
		}
	}
}

// ApplyPreset selects a rate preset, clamped to the valid range.
// Selecting RateCustom re-sends the stored custom rates unchanged.
// It returns the preset in effect afterwards.
func (p *Profile) ApplyPreset(preset RatePreset) RatePreset {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.session.Do(func(b Backend) {
		p.ratePreset = preset.Clamp()
		p.pushRates(b)
		p.update(b)
		p.logger.Debug("rate preset applied", "preset", p.ratePreset)
	})
	return p.ratePreset
}

// ApplyPresetName parses and applies a rate preset by name or number.
func (p *Profile) ApplyPresetName(name string) error {
	preset, err := ParseRatePreset(name)
	if err != nil {
		return err
	}
	p.ApplyPreset(preset)
	return nil
}

// CurrentPreset returns the selected rate preset.
func (p *Profile) CurrentPreset() RatePreset {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ratePreset
}

// AssignQuality sets a zone's custom shading rate, clamped to the valid
// range, and selects RateCustom if a named preset was active. It reports
// whether the change reached the backend.
func (p *Profile) AssignQuality(z zone.Zone, rate ShadingRate) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	z = normalizeZone(z)
	return p.session.Do(func(b Backend) {
		p.rates[z] = rate.Clamp()
		if p.ratePreset != RateCustom {
			p.ratePreset = RateCustom
			p.pushRates(b)
		} else {
			b.SetZoneRate(z, p.rates[z])
		}
		p.update(b)
	})
}

// Quality returns the shading rate in effect for a zone: the preset's
// rate for named presets, the assigned rate for RateCustom.
func (p *Profile) Quality(z zone.Zone) ShadingRate {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.effectiveRates()[normalizeZone(z)]
}

func (p *Profile) effectiveRates() [zone.Count]ShadingRate {
	if rates, ok := p.ratePreset.Rates(); ok {
		return rates
	}
	return p.rates
}

// ApplyPattern selects a foveation pattern, clamped to the valid range.
// Selecting PatternCustom re-sends the stored custom radii unchanged.
func (p *Profile) ApplyPattern(preset PatternPreset) PatternPreset {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.session.Do(func(b Backend) {
		p.patternPreset = preset.Clamp()
		p.pushPattern(b)
		p.update(b)
		p.logger.Debug("pattern preset applied", "preset", p.patternPreset)
	})
	return p.patternPreset
}

// ApplyPatternName parses and applies a pattern preset by name or number.
func (p *Profile) ApplyPatternName(name string) error {
	preset, err := ParsePatternPreset(name)
	if err != nil {
		return err
	}
	p.ApplyPattern(preset)
	return nil
}

// CurrentPattern returns the selected pattern preset.
func (p *Profile) CurrentPattern() PatternPreset {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.patternPreset
}

// AssignRadii sets a zone's custom radii, clamped to [MinRadius, MaxRadius],
// and selects PatternCustom if a named pattern was active.
func (p *Profile) AssignRadii(z zone.Zone, r zone.Radii) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	z = normalizeZone(z)
	return p.session.Do(func(b Backend) {
		p.radii[z] = ClampRadii(r)
		if p.patternPreset != PatternCustom {
			p.patternPreset = PatternCustom
			p.pushPattern(b)
		} else {
			b.SetZoneRadii(z, p.radii[z].X, p.radii[z].Y)
		}
		p.update(b)
	})
}

// Radii returns the radii in effect for a zone.
func (p *Profile) Radii(z zone.Zone) zone.Radii {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.effectiveRadii()[normalizeZone(z)]
}

func (p *Profile) effectiveRadii() [zone.Count]zone.Radii {
	if radii, ok := p.patternPreset.Radii(); ok {
		return radii
	}
	return p.radii
}

// SetCustom seeds the stored custom rates and radii without changing the
// selected presets, so a configured named preset still wins. Values are
// clamped and kept even while the session is not Ready. When the session
// is Ready and a custom preset is selected, the new values are pushed.
func (p *Profile) SetCustom(rates [zone.Count]ShadingRate, radii [zone.Count]zone.Radii) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := range rates {
		p.rates[i] = rates[i].Clamp()
		p.radii[i] = ClampRadii(radii[i])
	}
	if p.ratePreset != RateCustom && p.patternPreset != PatternCustom {
		return
	}
	p.session.Do(func(b Backend) {
		if p.ratePreset == RateCustom {
			p.pushRates(b)
		}
		if p.patternPreset == PatternCustom {
			p.pushPattern(b)
		}
		p.update(b)
	})
}

// SetGaze sends a normalized view-space gaze direction.
func (p *Profile) SetGaze(dir mgl32.Vec3) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.session.Do(func(b Backend) {
		p.gaze = dir
		b.SetGazeDirection(dir)
		p.update(b)
	})
}

// Snapshot returns the current profile state.
func (p *Profile) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := Snapshot{
		Ready:          p.session.Ready(),
		SessionID:      p.session.ID(),
		RatePreset:     p.ratePreset,
		RatePresetName: p.ratePreset.String(),
		PatternPreset:  p.patternPreset,
		PatternName:    p.patternPreset.String(),
		Rates:          p.effectiveRates(),
		CustomRates:    p.rates,
		Radii:          p.effectiveRadii(),
		CustomRadii:    p.radii,
		Gaze:           [3]float32(p.gaze),
		Updates:        p.updates,
	}
	for i, r := range s.Rates {
		s.RateNames[i] = r.String()
	}
	return s
}

// normalizeZone maps unknown zones to Peripheral.
func normalizeZone(z zone.Zone) zone.Zone {
	if z < zone.Inner || z > zone.Peripheral {
		return zone.Peripheral
	}
	return z
}
