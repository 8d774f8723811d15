package gaze

import (
	"context"
	"log/slog"
	"sync"
)

// Factory builds an uninitialized provider for a configuration.
type Factory func(cfg Config) (Source, error)

// FactoryWith returns a Factory that calls NewSource with fixed deps.
func FactoryWith(deps Deps, logger *slog.Logger) Factory {
	return func(cfg Config) (Source, error) {
		return NewSource(cfg, deps, logger)
	}
}

// Switcher owns the single active gaze provider.
//
// Switch is the only way to change providers: the outgoing provider's
// Cleanup completes before the incoming provider's Initialize begins, and
// no two providers are ever initialized at once.
type Switcher struct {
	build  Factory
	logger *slog.Logger

	mu     sync.Mutex
	active Source
	cfg    Config
}

// NewSwitcher creates a switcher with no active provider.
func NewSwitcher(build Factory, logger *slog.Logger) *Switcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Switcher{build: build, logger: logger}
}

// Switch tears down the current provider and starts one for cfg.
// On failure no provider is active and the error is returned; callers
// decide whether to retry or continue with the zero sample.
func (s *Switcher) Switch(ctx context.Context, cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != nil {
		old := s.active.Name()
		s.active.Cleanup()
		s.active = nil
		s.logger.Info("gaze source stopped", "method", old)
	}

	src, err := s.build(cfg)
	if err != nil {
		s.logger.Warn("gaze source unavailable", "method", cfg.Method, "error", err)
		return err
	}

	if err := src.Initialize(ctx); err != nil {
		src.Cleanup()
		s.logger.Warn("gaze source failed to initialize", "method", cfg.Method, "error", err)
		return err
	}

	s.active = src
	s.cfg = cfg
	s.logger.Info("gaze source active", "method", src.Name())
	return nil
}

// Direction returns the active provider's sample, or zero with none active.
func (s *Switcher) Direction() Sample {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return Sample{}
	}
	return s.active.Direction()
}

// Active returns the active method, or "" when none.
func (s *Switcher) Active() Method {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return ""
	}
	return Method(s.active.Name())
}

// Config returns the configuration of the active provider.
func (s *Switcher) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Stats returns the active provider's stats when it exposes them.
func (s *Switcher) Stats() (SourceStats, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ws, ok := s.active.(SourceWithStats); ok {
		return ws.Stats(), true
	}
	return SourceStats{}, false
}

// Close cleans up the active provider.
func (s *Switcher) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != nil {
		s.active.Cleanup()
		s.active = nil
	}
}
