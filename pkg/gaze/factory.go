package gaze

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Deps carries the collaborators some providers need.
type Deps struct {
	// Pointer backs MethodPointer.
	Pointer Pointer

	// Tracker backs MethodPlugin.
	Tracker Tracker

	// Mailbox backs MethodRemote.
	Mailbox *Mailbox
}

// Constructor builds a provider registered from another package.
type Constructor func(cfg Config, deps Deps, logger *slog.Logger) (Source, error)

var (
	registryMu sync.RWMutex
	registry   = map[Method]Constructor{}
)

// Register makes an additional provider available to NewSource.
// It panics if the method is empty, built in, or already registered.
func Register(method Method, ctor Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if method == "" || ctor == nil {
		panic("gaze: Register with empty method or nil constructor")
	}
	if isBuiltin(method) {
		panic(fmt.Sprintf("gaze: method %q is built in", method))
	}
	if _, dup := registry[method]; dup {
		panic(fmt.Sprintf("gaze: method %q registered twice", method))
	}
	registry[method] = ctor
}

func isBuiltin(m Method) bool {
	switch m {
	case MethodPointer, MethodPlugin, MethodNetwork, MethodRemote:
		return true
	}
	return false
}

// NewSource creates a gaze provider for cfg.Method.
// The provider is returned uninitialized.
func NewSource(cfg Config, deps Deps, logger *slog.Logger) (Source, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("creating gaze source", "method", cfg.Method)

	switch cfg.Method {
	case MethodPointer:
		if deps.Pointer == nil {
			return nil, fmt.Errorf("%w: pointer", ErrMissingDependency)
		}
		return NewPointerSource(deps.Pointer, cfg.AxesFor(MethodPointer), logger), nil
	case MethodPlugin:
		if deps.Tracker == nil {
			return nil, fmt.Errorf("%w: tracker", ErrMissingDependency)
		}
		return NewPluginSource(deps.Tracker, cfg.AxesFor(MethodPlugin), logger), nil
	case MethodNetwork:
		return NewUDPSource(cfg, logger), nil
	case MethodRemote:
		if deps.Mailbox == nil {
			return nil, fmt.Errorf("%w: mailbox", ErrMissingDependency)
		}
		return NewRemoteSource(deps.Mailbox, cfg.AxesFor(MethodRemote)), nil
	}

	registryMu.RLock()
	ctor, ok := registry[cfg.Method]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, cfg.Method)
	}
	return ctor(cfg, deps, logger)
}

// AvailableMethods returns every method NewSource can build.
func AvailableMethods() []Method {
	methods := []Method{MethodPointer, MethodPlugin, MethodNetwork, MethodRemote}

	registryMu.RLock()
	extra := make([]Method, 0, len(registry))
	for m := range registry {
		extra = append(extra, m)
	}
	registryMu.RUnlock()

	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(methods, extra...)
}
