package pipeline

import (
	"fmt"
	"log/slog"
	"strings"
)

// Style selects the integration style.
type Style string

const (
	StyleImmediate Style = "immediate"
	StyleGraph     Style = "graph"
)

// Config holds pipeline configuration.
type Config struct {
	// Style is "immediate" or "graph".
	// Default: "graph"
	Style Style `yaml:"style" json:"style"`

	// Path is "forward" or "deferred".
	// Default: "forward"
	Path string `yaml:"path" json:"path"`

	// Enabled attaches the brackets at startup.
	// Default: true
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Style:   StyleGraph,
		Path:    "forward",
		Enabled: true,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	c.Style = Style(strings.ToLower(string(c.Style)))
	if c.Style == "" {
		c.Style = StyleGraph
	}
	if c.Style != StyleImmediate && c.Style != StyleGraph {
		return fmt.Errorf("%w: %q", ErrInvalidStyle, c.Style)
	}
	if _, err := ParsePath(c.Path); err != nil {
		return err
	}
	return nil
}

// Renderer couples a Frame with the scheduler for the configured style.
type Renderer struct {
	style     Style
	frame     *Frame
	scheduler Scheduler
	graphs    *GraphScheduler
	graph     *Graph
}

// NewRenderer builds a frame and scheduler from cfg.
func NewRenderer(cfg Config, issuer Issuer, logger *slog.Logger) (*Renderer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	path, _ := ParsePath(cfg.Path)

	r := &Renderer{
		style: cfg.Style,
		frame: NewFrame(path, issuer),
	}
	if cfg.Style == StyleGraph {
		r.graphs = NewGraphScheduler(path, logger)
		r.graph = NewGraph()
		r.scheduler = r.graphs
	} else {
		r.scheduler = NewImmediateScheduler(r.frame, path, logger)
	}

	if cfg.Enabled {
		r.scheduler.Enable()
	}
	return r, nil
}

// Style returns the integration style.
func (r *Renderer) Style() Style { return r.style }

// Frame returns the underlying frame.
func (r *Renderer) Frame() *Frame { return r.frame }

// Scheduler returns the active scheduler.
func (r *Renderer) Scheduler() Scheduler { return r.scheduler }

// Toggle flips the brackets on or off and returns the new state.
func (r *Renderer) Toggle() bool {
	if r.scheduler.Enabled() {
		r.scheduler.Disable()
		return false
	}
	r.scheduler.Enable()
	return true
}

// SetPath switches forward or deferred rendering.
func (r *Renderer) SetPath(p Path) {
	r.scheduler.SetPath(p)
	r.frame.SetPath(p)
}

// Render draws one frame. Render must not be called concurrently.
func (r *Renderer) Render() (Trace, error) {
	if r.graphs == nil {
		return r.frame.Render(nil)
	}
	r.graph.Reset()
	r.graphs.Record(r.graph)
	return r.frame.Render(r.graph)
}
