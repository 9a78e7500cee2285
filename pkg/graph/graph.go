package graph

import (
	"context"
	"sort"
)

// End is the reserved terminal target. Routing to it ends the run; it owns no
// transform and cannot be registered as a node.
const End = "__end__"

// NodeFunc is the transform a node runs: it observes a read-only clone of the
// shared state and returns a partial update, or fails. It must not mutate the
// state it is handed.
type NodeFunc func(ctx context.Context, s *State) (Update, error)

// RouterFunc picks the outgoing label for a conditional edge. It observes the
// state after the triggering node's update has been merged and returns a label
// drawn from the edge's declared set.
type RouterFunc func(ctx context.Context, s *State) string

// If returns a RouterFunc that picks whenTrue while the predicate holds and
// whenFalse otherwise, turning a termination check into a conditional edge.
func If(pred func(*State) bool, whenTrue, whenFalse string) RouterFunc {
	return func(_ context.Context, s *State) string {
		if pred(s) {
			return whenTrue
		}
		return whenFalse
	}
}

type conditional struct {
	router  RouterFunc
	targets map[string]string
}

// Graph is a compiled node set, edge table and entry point. Compile validates
// it eagerly; afterwards it is immutable and safe to share across concurrent
// runs.
type Graph struct {
	name   string
	schema *Schema
	nodes  map[string]NodeFunc
	order  []string
	edges  map[string]string
	routes map[string]conditional
	entry  string
}

// Name returns the graph's name, used in logs, metrics, traces and diagrams.
func (g *Graph) Name() string {
	return g.name
}

// Schema returns the shared-state schema.
func (g *Graph) Schema() *Schema {
	return g.schema
}

// Entry returns the entry node name.
func (g *Graph) Entry() string {
	return g.entry
}

// Nodes returns the registered node names in registration order.
func (g *Graph) Nodes() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Node returns the named transform and whether it is registered.
func (g *Graph) Node(name string) (NodeFunc, bool) {
	fn, ok := g.nodes[name]
	return fn, ok
}

// Edge returns the unconditional successor of source, if it has one.
func (g *Graph) Edge(source string) (string, bool) {
	target, ok := g.edges[source]
	return target, ok
}

// Routes returns the sorted labels and the label-to-target mapping of
// source's conditional edge, if it has one. The map is a copy.
func (g *Graph) Routes(source string) ([]string, map[string]string, bool) {
	c, ok := g.routes[source]
	if !ok {
		return nil, nil, false
	}
	labels := make([]string, 0, len(c.targets))
	targets := make(map[string]string, len(c.targets))
	for label, target := range c.targets {
		labels = append(labels, label)
		targets[label] = target
	}
	sort.Strings(labels)
	return labels, targets, true
}

// ResolveNext returns the successor of source given the merged state: the
// unconditional target, or the target mapped from the router's label. A label
// outside the declared set fails with RoutingError; there is no default edge.
// The result may be End.
func (g *Graph) ResolveNext(ctx context.Context, source string, s *State) (string, error) {
	if target, ok := g.edges[source]; ok {
		return target, nil
	}
	c, ok := g.routes[source]
	if !ok {
		// Unreachable on a compiled graph; validation rejects dead ends.
		return "", configf("node %q has no outgoing edge", source)
	}
	label := c.router(ctx, s)
	target, ok := c.targets[label]
	if !ok {
		return "", &RoutingError{Node: source, Label: label, State: s}
	}
	return target, nil
}
