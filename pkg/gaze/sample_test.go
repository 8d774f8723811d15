package gaze

import (
	"math"
	"testing"
)

func TestSample_Clamp(t *testing.T) {
	tests := []struct {
		name string
		in   Sample
		want Sample
	}{
		{"inside", Sample{0.5, -0.25}, Sample{0.5, -0.25}},
		{"above", Sample{1.5, 2}, Sample{1, 1}},
		{"below", Sample{-3, -1.01}, Sample{-1, -1}},
		{"edges", Sample{1, -1}, Sample{1, -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Clamp(); got != tt.want {
				t.Errorf("Clamp(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSample_Valid(t *testing.T) {
	if !(Sample{0.2, 0.3}).Valid() {
		t.Error("finite sample should be valid")
	}
	if (Sample{math.NaN(), 0}).Valid() {
		t.Error("NaN sample should be invalid")
	}
	if (Sample{0, math.Inf(-1)}).Valid() {
		t.Error("Inf sample should be invalid")
	}
}

func TestSample_Direction(t *testing.T) {
	d := Sample{}.Direction(DefaultScaleX, DefaultScaleY)
	if d.X() != 0 || d.Y() != 0 || d.Z() != 1 {
		t.Errorf("zero sample should look forward, got %v", d)
	}

	d = Sample{X: 1, Y: -1}.Direction(DefaultScaleX, DefaultScaleY)
	if math.Abs(float64(d.Len())-1) > 1e-5 {
		t.Errorf("direction should be normalized, len = %f", d.Len())
	}
	if d.X() <= 0 || d.Y() >= 0 {
		t.Errorf("direction signs should follow the sample, got %v", d)
	}
	if d.X() <= -d.Y() {
		t.Errorf("horizontal scale should exceed vertical, got %v", d)
	}
}

func TestAxisConvention_Apply(t *testing.T) {
	s := Sample{X: 0.4, Y: -0.2}

	tests := []struct {
		name string
		conv AxisConvention
		want Sample
	}{
		{"none", AxisConvention{}, Sample{0.4, -0.2}},
		{"invert x", AxisConvention{InvertX: true}, Sample{-0.4, -0.2}},
		{"invert y", AxisConvention{InvertY: true}, Sample{0.4, 0.2}},
		{"both", AxisConvention{InvertX: true, InvertY: true}, Sample{-0.4, 0.2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.conv.Apply(s); got != tt.want {
				t.Errorf("Apply = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfig_AxesFor(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.AxesFor(MethodPointer).InvertX {
		t.Error("pointer should invert X by default")
	}
	if !cfg.AxesFor(MethodPlugin).InvertX {
		t.Error("plugin should invert X by default")
	}
	if cfg.AxesFor(MethodNetwork) != (AxisConvention{}) {
		t.Error("network should not invert by default")
	}

	cfg.Axes = &AxisConvention{InvertY: true}
	if got := cfg.AxesFor(MethodPointer); got != (AxisConvention{InvertY: true}) {
		t.Errorf("explicit axes should win, got %+v", got)
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}

	bad := cfg
	bad.Method = ""
	if err := bad.Validate(); err == nil {
		t.Error("empty method should be rejected")
	}

	bad = cfg
	bad.Method = MethodNetwork
	bad.Port = 70000
	if err := bad.Validate(); err == nil {
		t.Error("out-of-range port should be rejected")
	}

	bad = cfg
	bad.JoinTimeout = 0
	if err := bad.Validate(); err == nil {
		t.Error("zero join timeout should be rejected")
	}
}
