package dsl

import "github.com/aretw0/wattle/pkg/graph"

// Step provides a fluent API for wiring one node's outgoing edge.
type Step struct {
	flow *Flow
	name string
}

// Go adds an unconditional edge to the target step.
func (s *Step) Go(target string) *Step {
	s.flow.builder.AddEdge(s.name, target)
	return s
}

// End routes this step to the terminal target.
func (s *Step) End() *Step {
	s.flow.builder.AddEdge(s.name, graph.End)
	return s
}

// Then registers the next step, links this one to it unconditionally and
// returns the new step's builder, so linear pipelines read as one chain.
func (s *Step) Then(name string, fn graph.NodeFunc) *Step {
	s.flow.builder.AddNode(name, fn)
	s.flow.builder.AddEdge(s.name, name)
	return &Step{flow: s.flow, name: name}
}

// When adds a two-way conditional edge: whenTrue when the predicate holds on
// the merged state, whenFalse otherwise. Labels double as target names;
// graph.End is a valid target.
func (s *Step) When(pred func(*graph.State) bool, whenTrue, whenFalse string) *Step {
	s.flow.builder.AddConditionalEdges(s.name, graph.If(pred, whenTrue, whenFalse), map[string]string{
		whenTrue:  whenTrue,
		whenFalse: whenFalse,
	})
	return s
}

// Route adds a conditional edge with an explicit router and label table.
func (s *Step) Route(router graph.RouterFunc, targets map[string]string) *Step {
	s.flow.builder.AddConditionalEdges(s.name, router, targets)
	return s
}
