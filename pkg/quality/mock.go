package quality

import (
	"fmt"
	"slices"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/teslashibe/go-foveate/pkg/zone"
)

// MockBackend is a Backend for testing that records every command.
type MockBackend struct {
	mu sync.Mutex

	// FailOpen makes OpenSession report failure.
	FailOpen bool

	calls  []string
	events []Event
	gaze   mgl32.Vec3
	open   bool
}

// NewMockBackend creates a mock backend that opens successfully.
func NewMockBackend() *MockBackend {
	return &MockBackend{}
}

func (m *MockBackend) record(format string, args ...any) {
	m.calls = append(m.calls, fmt.Sprintf(format, args...))
}

// OpenSession implements Backend.
func (m *MockBackend) OpenSession(fovY, aspect float64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("open %.0f %.2f", fovY, aspect)
	if m.FailOpen {
		return false
	}
	m.open = true
	return true
}

// CloseSession implements Backend.
func (m *MockBackend) CloseSession() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("close")
	m.open = false
}

// SetRatePreset implements Backend.
func (m *MockBackend) SetRatePreset(p RatePreset) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("rate-preset %s", p)
}

// SetPatternPreset implements Backend.
func (m *MockBackend) SetPatternPreset(p PatternPreset) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("pattern-preset %s", p)
}

// SetZoneRate implements Backend.
func (m *MockBackend) SetZoneRate(z zone.Zone, rate ShadingRate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("rate %s %s", z, rate)
}

// SetZoneRadii implements Backend.
func (m *MockBackend) SetZoneRadii(z zone.Zone, rx, ry float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("radii %s %.2f %.2f", z, rx, ry)
}

// SetGazeDirection implements Backend.
func (m *MockBackend) SetGazeDirection(dir mgl32.Vec3) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gaze = dir
	m.record("gaze")
}

// Issue implements Backend.
func (m *MockBackend) Issue(ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	m.record("issue %s", ev)
}

// Calls returns every recorded command in order.
func (m *MockBackend) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}

// Events returns the issued events in order.
func (m *MockBackend) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.events)
}

// Gaze returns the last gaze direction set.
func (m *MockBackend) Gaze() mgl32.Vec3 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gaze
}

// Reset clears recorded commands.
func (m *MockBackend) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.events = nil
}
