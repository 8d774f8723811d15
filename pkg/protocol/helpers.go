package protocol

import (
	"errors"
	"math"
)

// ErrInvalidGaze is returned when a gaze message carries non-finite values.
var ErrInvalidGaze = errors.New("protocol: invalid gaze data")

// =============================================================================
// Helper functions for creating messages
// =============================================================================

// NewHelloMessage creates a tracker hello message
func NewHelloMessage(name, device, version string) (*Message, error) {
	return NewMessage(TypeHello, HelloData{
		Name:    name,
		Device:  device,
		Version: version,
	})
}

// NewGazeMessage creates a gaze sample message
func NewGazeMessage(x, y, confidence float64, seq uint64) (*Message, error) {
	return NewMessage(TypeGaze, GazeData{
		X:          x,
		Y:          y,
		Confidence: confidence,
		Seq:        seq,
	})
}

// NewWelcomeMessage creates a welcome message for a tracker
func NewWelcomeMessage(trackerID, server string) (*Message, error) {
	return NewMessage(TypeWelcome, WelcomeData{
		TrackerID: trackerID,
		Server:    server,
	})
}

// NewStatusMessage creates a dashboard status message
func NewStatusMessage(status StatusData) (*Message, error) {
	return NewMessage(TypeStatus, status)
}

// NewErrorMessage creates an error message
func NewErrorMessage(code, message string) (*Message, error) {
	return NewMessage(TypeError, ErrorData{
		Code:    code,
		Message: message,
	})
}

// NewPingMessage creates a ping message
func NewPingMessage(id string) (*Message, error) {
	return NewMessage(TypePing, PingData{
		ID:        id,
		Timestamp: 0, // Will be set by NewMessage
	})
}

// NewPongMessage creates a pong response message
func NewPongMessage(id string, pingTS, pongTS int64) (*Message, error) {
	return NewMessage(TypePong, PongData{
		ID:        id,
		PingTS:    pingTS,
		PongTS:    pongTS,
		LatencyMs: pongTS - pingTS,
	})
}

// =============================================================================
// Helper functions for parsing messages
// =============================================================================

// GetHelloData extracts hello data from a message
func (m *Message) GetHelloData() (*HelloData, error) {
	var data HelloData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetGazeData extracts gaze data from a message
func (m *Message) GetGazeData() (*GazeData, error) {
	var data GazeData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	if err := data.Validate(); err != nil {
		return nil, err
	}
	return &data, nil
}

// Validate rejects NaN and infinite coordinates.
func (g *GazeData) Validate() error {
	for _, v := range []float64{g.X, g.Y, g.Confidence} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrInvalidGaze
		}
	}
	return nil
}

// GetWelcomeData extracts welcome data from a message
func (m *Message) GetWelcomeData() (*WelcomeData, error) {
	var data WelcomeData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetStatusData extracts status data from a message
func (m *Message) GetStatusData() (*StatusData, error) {
	var data StatusData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetErrorData extracts error data from a message
func (m *Message) GetErrorData() (*ErrorData, error) {
	var data ErrorData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPingData extracts ping data from a message
func (m *Message) GetPingData() (*PingData, error) {
	var data PingData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPongData extracts pong data from a message
func (m *Message) GetPongData() (*PongData, error) {
	var data PongData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
