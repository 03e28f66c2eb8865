package sim

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

var ErrOrder = errors.New("boot step out of order")

// precedes lists which boot step has to be observed before which.
var precedes = [][2]EventKind{
	{EvDisableIRQ, EvSystemInit},
	{EvSystemInit, EvSwitchStack},
	{EvSwitchStack, EvMemoryInit},
	{EvMemoryInit, EvHandoff},
	{EvDisableIRQ, EvHandoff},
	{EvHandoff, EvReset},
}

// optional steps leave no trace when there is nothing to do, an empty
// .data and .bss for instance.
var optional = map[EventKind]bool{
	EvMemoryInit: true,
}

func bootGraph() *simple.DirectedGraph {
	g := simple.NewDirectedGraph()
	for _, e := range precedes {
		g.SetEdge(g.NewEdge(simple.Node(e[0]), simple.Node(e[1])))
	}
	return g
}

func sortedSteps(g *simple.DirectedGraph) []graph.Node {
	nodes, err := topo.Sort(g)
	if err != nil {
		panic(err)
	}
	return nodes
}

// BootOrder returns the boot steps in the only order that satisfies every
// dependency.
func BootOrder() []EventKind {
	nodes := sortedSteps(bootGraph())
	order := make([]EventKind, len(nodes))
	for i, n := range nodes {
		order[i] = EventKind(n.ID())
	}
	return order
}

// VerifyOrder checks that the boot steps in a trace respect their
// dependencies and that interrupts stay masked until the handoff. A step
// has to follow every step it transitively depends on, so a skipped
// optional step does not hide the ordering of its neighbours.
func VerifyOrder(t Trace) error {
	g := bootGraph()
	nodes := sortedSteps(g)

	var errs []error
	for i, from := range nodes {
		for _, to := range nodes[i+1:] {
			if !topo.PathExistsIn(g, from, to) {
				continue
			}
			first, then := EventKind(from.ID()), EventKind(to.ID())
			before, after := t.Index(first), t.Index(then)
			if after < 0 {
				continue
			}
			if before < 0 && optional[first] {
				continue
			}
			if before < 0 || before > after {
				errs = append(errs, fmt.Errorf("%s before %s: %w", then, first, ErrOrder))
			}
		}
	}

	if handoff := t.Index(EvHandoff); handoff >= 0 {
		if enable := t.Index(EvEnableIRQ); enable >= 0 && enable < handoff {
			errs = append(errs, fmt.Errorf("%s before %s: %w", EvEnableIRQ, EvHandoff, ErrOrder))
		}
	}
	return errors.Join(errs...)
}
