// Package config provides configuration helpers for go-foveate commands.
package config

import (
	"os"
	"strconv"
)

// Default ports and paths.
const (
	DefaultGazePort      = 50666
	DefaultDashboardPort = "8088"
	DefaultConfigFile    = "foveate.yaml"
)

// GazePort returns the UDP gaze port from FOVEATE_GAZE_PORT.
// Falls back to DefaultGazePort if unset or not a valid port.
func GazePort() int {
	if v := os.Getenv("FOVEATE_GAZE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 && port < 65536 {
			return port
		}
	}
	return DefaultGazePort
}

// DashboardPort returns the dashboard port from FOVEATE_DASHBOARD_PORT or default.
func DashboardPort() string {
	if port := os.Getenv("FOVEATE_DASHBOARD_PORT"); port != "" {
		return port
	}
	return DefaultDashboardPort
}

// ConfigPath returns the config file path from FOVEATE_CONFIG.
// Falls back to the provided default if not set.
func ConfigPath(defaultPath string) string {
	if path := os.Getenv("FOVEATE_CONFIG"); path != "" {
		return path
	}
	return defaultPath
}

// LogLevel returns the log level from FOVEATE_LOG_LEVEL or "info".
func LogLevel() string {
	if level := os.Getenv("FOVEATE_LOG_LEVEL"); level != "" {
		return level
	}
	return "info"
}
