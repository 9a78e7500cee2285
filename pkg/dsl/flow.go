package dsl

import (
	"github.com/aretw0/wattle/pkg/graph"
)

// Flow accumulates a graph definition through chainable step builders.
type Flow struct {
	builder  *graph.Builder
	err      error
	entrySet bool
}

// NewFlow starts a flow for a named graph whose shared state declares the
// given fields.
func NewFlow(name string, fields ...graph.Field) *Flow {
	f := &Flow{}
	schema, err := graph.NewSchema(fields...)
	if err != nil {
		f.err = err
	}
	f.builder = graph.New(name, schema)
	return f
}

// Step registers a named transform and returns its builder. The first step
// becomes the entry point unless Start names another one.
func (f *Flow) Step(name string, fn graph.NodeFunc) *Step {
	f.builder.AddNode(name, fn)
	if !f.entrySet {
		f.builder.SetEntryPoint(name)
		f.entrySet = true
	}
	return &Step{flow: f, name: name}
}

// Start overrides the entry point.
func (f *Flow) Start(name string) *Flow {
	f.builder.SetEntryPoint(name)
	f.entrySet = true
	return f
}

// Compile validates the accumulated definition and returns the graph.
func (f *Flow) Compile() (*graph.Graph, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.builder.Compile()
}
