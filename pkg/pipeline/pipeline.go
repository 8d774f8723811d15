// Package pipeline brackets foveated rendering around the phases of a
// render pipeline.
//
// The shading backend has to be enabled before opaque geometry is drawn
// and disabled after transparent geometry. Two integration styles are
// supported and produce the same sequence of backend calls:
//
//   - Immediate: command buffers attached to fixed pipeline events
//     (ImmediateScheduler, Host, BufferSet).
//   - Graph: passes registered into a declarative render graph each frame,
//     marked ForceKeep so culling cannot drop them (GraphScheduler, Graph).
//
// With the deferred path the geometry buffer phase is bracketed too.
// Frame is an in-memory pipeline that walks the timeline and runs both.
package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/teslashibe/go-foveate/pkg/quality"
)

var (
	// ErrInvalidPath is returned for an unknown rendering path.
	ErrInvalidPath = errors.New("pipeline: invalid rendering path")

	// ErrInvalidStyle is returned for an unknown integration style.
	ErrInvalidStyle = errors.New("pipeline: invalid integration style")

	// ErrInvalidPass is returned when a graph pass cannot be compiled.
	ErrInvalidPass = errors.New("pipeline: invalid pass")
)

// Path is the rendering path of the host pipeline.
type Path int

const (
	PathForward Path = iota
	PathDeferred
)

func (p Path) String() string {
	switch p {
	case PathForward:
		return "forward"
	case PathDeferred:
		return "deferred"
	default:
		return fmt.Sprintf("path(%d)", int(p))
	}
}

// ParsePath parses "forward" or "deferred".
func ParsePath(s string) (Path, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "forward", "":
		return PathForward, nil
	case "deferred":
		return PathDeferred, nil
	}
	return PathForward, fmt.Errorf("%w: %q", ErrInvalidPath, s)
}

// Event is a hook point in the frame, in timeline order.
type Event int

const (
	BeforeGBuffer Event = iota
	AfterGBuffer
	BeforeForwardOpaque
	AfterForwardOpaque
	BeforeForwardAlpha
	AfterForwardAlpha

	eventCount
)

var eventNames = [eventCount]string{
	"before-gbuffer",
	"after-gbuffer",
	"before-forward-opaque",
	"after-forward-opaque",
	"before-forward-alpha",
	"after-forward-alpha",
}

func (e Event) String() string {
	if e < 0 || e >= eventCount {
		return fmt.Sprintf("event(%d)", int(e))
	}
	return eventNames[e]
}

func (e Event) valid() bool {
	return e >= 0 && e < eventCount
}

// Phase is a geometry phase bounded by two events.
type Phase struct {
	Name   string
	Before Event
	After  Event
}

var (
	gbufferPhase = Phase{Name: "gbuffer", Before: BeforeGBuffer, After: AfterGBuffer}
	opaquePhase  = Phase{Name: "opaque", Before: BeforeForwardOpaque, After: AfterForwardOpaque}
	alphaPhase   = Phase{Name: "alpha", Before: BeforeForwardAlpha, After: AfterForwardAlpha}
)

// Phases returns the geometry phases drawn by path, in order. The deferred
// path still draws forward-only opaque geometry after the geometry buffer.
func Phases(p Path) []Phase {
	if p == PathDeferred {
		return []Phase{gbufferPhase, opaquePhase, alphaPhase}
	}
	return []Phase{opaquePhase, alphaPhase}
}

// Timeline returns the events fired by path, in order.
func Timeline(p Path) []Event {
	var events []Event
	for _, ph := range Phases(p) {
		events = append(events, ph.Before, ph.After)
	}
	return events
}

// bracket is a set of commands run at one event.
type bracket struct {
	name     string
	event    Event
	commands []Command
}

// ClearTarget is the render target cleared when foveation is enabled.
const ClearTarget = "shading-rate-image"

// brackets returns the enable/disable brackets for path.
//
// Forward: enable before opaque, disable after alpha.
// Deferred: enable/disable around the geometry buffer and around alpha.
func brackets(p Path) []bracket {
	enable := []Command{IssueCommand(quality.EventEnable), ClearCommand(ClearTarget)}
	disable := []Command{IssueCommand(quality.EventDisable)}

	if p == PathDeferred {
		return []bracket{
			{"foveate-enable-gbuffer", BeforeGBuffer, enable},
			{"foveate-disable-gbuffer", AfterGBuffer, disable},
			{"foveate-enable-alpha", BeforeForwardAlpha, []Command{IssueCommand(quality.EventEnable)}},
			{"foveate-disable-alpha", AfterForwardAlpha, disable},
		}
	}
	return []bracket{
		{"foveate-enable", BeforeForwardOpaque, enable},
		{"foveate-disable", AfterForwardAlpha, disable},
	}
}
