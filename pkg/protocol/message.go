// Package protocol defines the WebSocket message types exchanged between
// remote gaze trackers, dashboards, and the foveation server.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Tracker → Server messages
	TypeHello MessageType = "hello" // Tracker introduction
	TypeGaze  MessageType = "gaze"  // Gaze sample

	// Server → Tracker / dashboard messages
	TypeWelcome MessageType = "welcome" // Tracker accepted
	TypeStatus  MessageType = "status"  // Periodic server status
	TypeError   MessageType = "error"   // Rejected message

	// Bidirectional
	TypePing MessageType = "ping" // Health check
	TypePong MessageType = "pong" // Health check response
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data any) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v any) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	return &msg, nil
}

// =============================================================================
// Tracker → Server Message Types
// =============================================================================

// HelloData introduces a tracker
type HelloData struct {
	Name    string `json:"name"`
	Device  string `json:"device,omitempty"`  // "webcam", "headset", "synthetic"
	Version string `json:"version,omitempty"` // Tracker software version
}

// GazeData contains one gaze sample in normalized screen space
type GazeData struct {
	X          float64 `json:"x"`                    // [-1, 1], right positive
	Y          float64 `json:"y"`                    // [-1, 1], up positive
	Confidence float64 `json:"confidence,omitempty"` // 0.0 to 1.0, 0 means unknown
	Seq        uint64  `json:"seq,omitempty"`        // Per-tracker sequence number
}

// =============================================================================
// Server → Tracker / Dashboard Message Types
// =============================================================================

// WelcomeData acknowledges a tracker
type WelcomeData struct {
	TrackerID string `json:"tracker_id"`
	Server    string `json:"server"`
}

// StatusData is a periodic summary pushed to dashboards
type StatusData struct {
	Method      string     `json:"method"`
	Gaze        [2]float64 `json:"gaze"`
	FPS         int        `json:"fps"`
	Preset      string     `json:"preset"`
	Pattern     string     `json:"pattern"`
	Session     bool       `json:"session"`
	Pipeline    bool       `json:"pipeline"`
	Trackers    int        `json:"trackers"`
	ZoneObjects []int      `json:"zone_objects,omitempty"`
}

// ErrorData reports a rejected message
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// =============================================================================
// Bidirectional Message Types
// =============================================================================

// PingData contains ping information
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
}

// PongData contains pong response
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}
