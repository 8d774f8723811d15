package main

import (
	"math"
	"testing"

	"github.com/teslashibe/go-foveate/pkg/gaze"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		line    string
		want    gaze.Sample
		wantErr bool
	}{
		{"0.5,-0.25", gaze.Sample{X: 0.5, Y: -0.25}, false},
		{"  0.1   0.2 ", gaze.Sample{X: 0.1, Y: 0.2}, false},
		{"3 0", gaze.Sample{X: 1, Y: 0}, false},
		{"0.1", gaze.Sample{}, true},
		{"a,b", gaze.Sample{}, true},
	}

	for _, tt := range tests {
		got, err := parseLine(tt.line)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseLine(%q) error = %v, wantErr %v", tt.line, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseLine(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestPatternsStayInRange(t *testing.T) {
	for i := range 1000 {
		ts := float64(i) * 0.01
		for _, s := range []gaze.Sample{lissajous(ts), circle(ts)} {
			if math.Abs(s.X) > 1 || math.Abs(s.Y) > 1 {
				t.Fatalf("t=%v sample %v out of range", ts, s)
			}
		}
	}
}
