package quality

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/teslashibe/go-foveate/pkg/zone"
)

// ShadingRate is the number of shading passes per pixel block.
// Lower values are finer; the order matches the backend's enumeration.
type ShadingRate int

const (
	RateCull ShadingRate = iota
	Rate16xSS
	Rate8xSS
	Rate4xSS
	Rate2xSS
	Rate1x1
	Rate2x1
	Rate1x2
	Rate2x2
	Rate4x2
	Rate2x4
	Rate4x4
)

// Shading rate bounds.
const (
	MinShadingRate = RateCull
	MaxShadingRate = Rate4x4
)

var rateNames = [...]string{
	"cull", "16xss", "8xss", "4xss", "2xss",
	"1x1", "2x1", "1x2", "2x2", "4x2", "2x4", "4x4",
}

// Clamp limits r to the supported range.
func (r ShadingRate) Clamp() ShadingRate {
	return clampInt(r, MinShadingRate, MaxShadingRate)
}

// String returns the short rate name, e.g. "2x2" or "4xss".
func (r ShadingRate) String() string {
	if r >= MinShadingRate && r <= MaxShadingRate {
		return rateNames[r]
	}
	return fmt.Sprintf("rate(%d)", int(r))
}

// ParseShadingRate accepts a rate name or a numeric value.
// Numeric values are clamped rather than rejected.
func ParseShadingRate(s string) (ShadingRate, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range rateNames {
		if s == n {
			return ShadingRate(i), nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil {
		return ShadingRate(n).Clamp(), nil
	}
	return 0, fmt.Errorf("%w: shading rate %q", ErrInvalidRate, s)
}

// RatePreset selects a backend-defined set of per-zone shading rates.
type RatePreset int

const (
	HighestPerformance RatePreset = iota + 1
	HighPerformance
	BalancedRates
	HighQuality
	HighestQuality
	RateCustom

	MaxRatePreset = RateCustom
)

var ratePresetNames = map[RatePreset]string{
	HighestPerformance: "highest-performance",
	HighPerformance:    "high-performance",
	BalancedRates:      "balanced",
	HighQuality:        "high-quality",
	HighestQuality:     "highest-quality",
	RateCustom:         "custom",
}

// ratePresets holds inner, middle and peripheral rates per named preset.
var ratePresets = map[RatePreset][zone.Count]ShadingRate{
	HighestPerformance: {Rate1x1, Rate2x2, Rate4x4},
	HighPerformance:    {Rate1x1, Rate2x2, Rate2x2},
	BalancedRates:      {Rate4xSS, Rate1x1, Rate2x2},
	HighQuality:        {Rate4xSS, Rate2xSS, Rate1x1},
	HighestQuality:     {Rate8xSS, Rate4xSS, Rate2xSS},
}

// Clamp limits p to [HighestPerformance, RateCustom].
func (p RatePreset) Clamp() RatePreset {
	return clampInt(p, HighestPerformance, MaxRatePreset)
}

// String returns the preset name.
func (p RatePreset) String() string {
	if n, ok := ratePresetNames[p]; ok {
		return n
	}
	return fmt.Sprintf("rate-preset(%d)", int(p))
}

// Rates returns the per-zone rates implied by a named preset.
// ok is false for RateCustom, whose rates are caller-assigned.
func (p RatePreset) Rates() (rates [zone.Count]ShadingRate, ok bool) {
	rates, ok = ratePresets[p.Clamp()]
	return rates, ok
}

// ParseRatePreset accepts a preset name or a number.
// Unknown names fail with ErrInvalidPreset; numbers are clamped.
func ParseRatePreset(s string) (RatePreset, error) {
	s = normalizeName(s)
	for p, n := range ratePresetNames {
		if s == n {
			return p, nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil {
		return RatePreset(n).Clamp(), nil
	}
	return 0, fmt.Errorf("%w: rate preset %q", ErrInvalidPreset, s)
}

// PatternPreset selects a backend-defined set of zone radii.
type PatternPreset int

const (
	PatternWide PatternPreset = iota + 1
	PatternBalanced
	PatternNarrow
	PatternCustom

	MaxPatternPreset = PatternCustom
)

var patternPresetNames = map[PatternPreset]string{
	PatternWide:     "wide",
	PatternBalanced: "balanced",
	PatternNarrow:   "narrow",
	PatternCustom:   "custom",
}

// patternPresets approximates the backend's built-in foveation patterns
// for reporting and for the software backend.
var patternPresets = map[PatternPreset][zone.Count]zone.Radii{
	PatternWide:     {{X: 0.50, Y: 0.40}, {X: 0.70, Y: 0.60}, {X: 1.20, Y: 1.20}},
	PatternBalanced: {{X: 0.35, Y: 0.30}, {X: 0.50, Y: 0.45}, {X: 1.00, Y: 1.00}},
	PatternNarrow:   {{X: 0.25, Y: 0.25}, {X: 0.33, Y: 0.33}, {X: 1.00, Y: 1.00}},
}

// Clamp limits p to [PatternWide, PatternCustom].
func (p PatternPreset) Clamp() PatternPreset {
	return clampInt(p, PatternWide, MaxPatternPreset)
}

// String returns the preset name.
func (p PatternPreset) String() string {
	if n, ok := patternPresetNames[p]; ok {
		return n
	}
	return fmt.Sprintf("pattern-preset(%d)", int(p))
}

// Radii returns the per-zone radii implied by a named pattern.
// ok is false for PatternCustom.
func (p PatternPreset) Radii() (radii [zone.Count]zone.Radii, ok bool) {
	radii, ok = patternPresets[p.Clamp()]
	return radii, ok
}

// ParsePatternPreset accepts a pattern name or a number.
func ParsePatternPreset(s string) (PatternPreset, error) {
	s = normalizeName(s)
	for p, n := range patternPresetNames {
		if s == n {
			return p, nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil {
		return PatternPreset(n).Clamp(), nil
	}
	return 0, fmt.Errorf("%w: pattern preset %q", ErrInvalidPreset, s)
}

// Radius bounds accepted by the backend.
const (
	MinRadius = 0.01
	MaxRadius = 10.0
)

// ClampRadii limits both radii to [MinRadius, MaxRadius].
func ClampRadii(r zone.Radii) zone.Radii {
	return zone.Radii{X: clampFloat(r.X), Y: clampFloat(r.Y)}
}

func clampFloat(v float64) float64 {
	if v < MinRadius {
		return MinRadius
	}
	if v > MaxRadius {
		return MaxRadius
	}
	return v
}

func clampInt[T ~int](v, min, max T) T {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("_", "-", " ", "-").Replace(s)
}
