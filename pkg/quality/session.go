package quality

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// State is the lifecycle state of a Session.
type State int

const (
	// StateUninitialized means the backend has no open session.
	StateUninitialized State = iota
	// StateReady means the backend accepts configuration.
	StateReady
)

// String returns the state name.
func (s State) String() string {
	if s == StateReady {
		return "ready"
	}
	return "uninitialized"
}

// Session owns a backend between Open and Close.
//
// Components that configure the backend hold the same *Session and check
// Ready before every command; nothing reaches the backend while the
// session is closed.
type Session struct {
	backend Backend
	logger  *slog.Logger

	mu     sync.RWMutex
	id     uuid.UUID
	state  State
	fovY   float64
	aspect float64
	opens  int
}

// NewSession creates a closed session over b.
func NewSession(b Backend, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{backend: b, logger: logger.With("component", "quality")}
}

// Start opens the backend session. Opening a Ready session is a no-op.
func (s *Session) Start(fovY, aspect float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateReady {
		return nil
	}
	if s.backend == nil {
		return ErrNoBackend
	}
	if !s.backend.OpenSession(fovY, aspect) {
		s.logger.Warn("backend session failed to open, foveation stays disabled",
			"fov_y", fovY, "aspect", aspect)
		return fmt.Errorf("%w (fov %.1f, aspect %.3f)", ErrSessionOpen, fovY, aspect)
	}

	s.id = uuid.New()
	s.state = StateReady
	s.fovY, s.aspect = fovY, aspect
	s.opens++
	s.logger.Info("backend session opened", "session", s.id, "fov_y", fovY, "aspect", aspect)
	return nil
}

// Open is Start reporting success as a bool.
func (s *Session) Open(fovY, aspect float64) bool {
	return s.Start(fovY, aspect) == nil
}

// Close releases the backend session. Closing twice is a no-op.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReady {
		return
	}
	s.backend.CloseSession()
	s.state = StateUninitialized
	s.logger.Info("backend session closed", "session", s.id)
}

// Ready reports whether the backend accepts configuration.
func (s *Session) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == StateReady
}

// State returns the lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// ID returns the identifier of the current (or last) open session.
func (s *Session) ID() uuid.UUID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

// Camera returns the field of view and aspect the session was opened with.
func (s *Session) Camera() (fovY, aspect float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fovY, s.aspect
}

// Do runs fn with the backend while the session is Ready and reports
// whether it ran. The session cannot close while fn executes.
func (s *Session) Do(fn func(b Backend)) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state != StateReady {
		return false
	}
	fn(s.backend)
	return true
}

// Issue forwards ev to the backend while Ready.
func (s *Session) Issue(ev Event) bool {
	return s.Do(func(b Backend) { b.Issue(ev) })
}
