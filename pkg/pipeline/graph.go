package pipeline

import (
	"fmt"
	"slices"
)

// Pass is a node of the render graph.
type Pass struct {
	Name  string
	Event Event

	// Writes lists the resources the pass writes. Passes without writes
	// are culled unless ForceKeep is set.
	Writes []string

	// ForceKeep exempts the pass from culling. Set it on passes whose only
	// effect is a backend side effect.
	ForceKeep bool

	Execute func(pc *PassContext)
}

// Graph is a per-frame declarative render graph.
type Graph struct {
	passes []Pass
	culled []string
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{}
}

// AddPass registers a pass.
func (g *Graph) AddPass(p Pass) {
	g.passes = append(g.passes, p)
}

// Len returns the number of registered passes.
func (g *Graph) Len() int {
	return len(g.passes)
}

// Reset drops all passes so the graph can be rebuilt for the next frame.
func (g *Graph) Reset() {
	g.passes = g.passes[:0]
	g.culled = nil
}

// Compile validates the graph, culls passes with no writes, and returns
// the survivors ordered by event. Passes on the same event keep their
// registration order.
func (g *Graph) Compile() ([]Pass, error) {
	g.culled = nil

	kept := make([]Pass, 0, len(g.passes))
	for _, p := range g.passes {
		if !p.Event.valid() {
			return nil, fmt.Errorf("%w: %q at %v", ErrInvalidPass, p.Name, p.Event)
		}
		if p.Execute == nil {
			return nil, fmt.Errorf("%w: %q has no execute func", ErrInvalidPass, p.Name)
		}
		if len(p.Writes) == 0 && !p.ForceKeep {
			g.culled = append(g.culled, p.Name)
			continue
		}
		kept = append(kept, p)
	}

	slices.SortStableFunc(kept, func(a, b Pass) int {
		return int(a.Event) - int(b.Event)
	})
	return kept, nil
}

// Culled returns the names of passes dropped by the last Compile.
func (g *Graph) Culled() []string {
	return slices.Clone(g.culled)
}
