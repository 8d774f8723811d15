// Package gaze provides gaze input for foveated rendering.
//
// This package supports multiple providers:
//   - Pointer - mouse or terminal pointer position, normalized to the viewport
//   - Plugin  - a native eye-tracking service queried synchronously
//   - Network - "x,y" datagrams from an external tracker process over UDP
//   - Remote  - samples pushed over websocket (see pkg/ingest)
//   - Webcam  - OpenCV eye detection (see pkg/gaze/webcam)
//
// The provider is selected by Config.Method and swapped at runtime through
// a Switcher, which tears the old provider down before starting the new one.
package gaze

import (
	"fmt"
	"time"
)

// Method represents the gaze provider type.
type Method string

const (
	// MethodPointer reads the current pointer position.
	MethodPointer Method = "pointer"
	// MethodPlugin queries a native eye-tracking service.
	MethodPlugin Method = "plugin"
	// MethodNetwork receives "x,y" datagrams over UDP.
	MethodNetwork Method = "network"
	// MethodRemote reads samples pushed over websocket.
	MethodRemote Method = "remote"
	// MethodWebcam estimates gaze from a webcam. Requires pkg/gaze/webcam.
	MethodWebcam Method = "webcam"
)

// Config holds gaze provider configuration.
type Config struct {
	// Method selects the provider.
	// Default: "pointer"
	Method Method `yaml:"method" json:"method"`

	// Address is the UDP bind address for the network provider.
	// Default: "0.0.0.0"
	Address string `yaml:"address" json:"address"`

	// Port is the UDP port for the network provider.
	// Default: 50666
	Port int `yaml:"port" json:"port"`

	// Axes is the sign convention applied by the provider to its raw input.
	// Default: InvertX for pointer and plugin, none for network.
	Axes *AxisConvention `yaml:"axes,omitempty" json:"axes,omitempty"`

	// JoinTimeout bounds how long Cleanup waits for a background receiver.
	// Default: 1s
	JoinTimeout time.Duration `yaml:"join_timeout" json:"join_timeout"`

	// ReadPoll is how often a blocked receiver re-checks its stop flag.
	// Default: 200ms
	ReadPoll time.Duration `yaml:"read_poll" json:"read_poll"`

	// Device is the webcam device index for the webcam provider.
	Device int `yaml:"device" json:"device"`

	// CascadeDir holds Haar cascade files for the webcam provider.
	CascadeDir string `yaml:"cascade_dir" json:"cascade_dir"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Method:      MethodPointer,
		Address:     "0.0.0.0",
		Port:        50666,
		JoinTimeout: time.Second,
		ReadPoll:    200 * time.Millisecond,
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Method == "" {
		return fmt.Errorf("method is required")
	}
	if c.Method == MethodNetwork && (c.Port < 0 || c.Port > 65535) {
		return fmt.Errorf("port must be in [0, 65535], got %d", c.Port)
	}
	if c.JoinTimeout <= 0 {
		return fmt.Errorf("join_timeout must be positive, got %v", c.JoinTimeout)
	}
	if c.ReadPoll <= 0 {
		return fmt.Errorf("read_poll must be positive, got %v", c.ReadPoll)
	}
	return nil
}

// WithTimings returns c with non-positive JoinTimeout and ReadPoll replaced
// by the defaults.
func (c Config) WithTimings() Config {
	def := DefaultConfig()
	if c.JoinTimeout <= 0 {
		c.JoinTimeout = def.JoinTimeout
	}
	if c.ReadPoll <= 0 {
		c.ReadPoll = def.ReadPoll
	}
	return c
}

// AxesFor returns the configured axis convention, or the provider default.
//
// Pointer and plugin providers negate X by default (their raw screen X grows
// to the right while the backend's gaze X grows to the left); network and
// remote providers receive already-oriented samples.
func (c *Config) AxesFor(method Method) AxisConvention {
	if c.Axes != nil {
		return *c.Axes
	}
	switch method {
	case MethodPointer, MethodPlugin:
		return AxisConvention{InvertX: true}
	default:
		return AxisConvention{}
	}
}
