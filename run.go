package wattle

import (
	"context"

	"github.com/aretw0/wattle/internal/runtime"
	"github.com/aretw0/wattle/pkg/graph"
)

// Run is one in-flight graph traversal, consumed as a caller-paced cursor:
//
//	run, err := eng.Start(ctx, g, initial)
//	...
//	for run.Next(ctx) {
//	    ev := run.Event()
//	    ...
//	}
//	if err := run.Err(); err != nil {
//	    ...
//	}
//
// Each Next call performs at most one step. A Run is owned by a single caller
// and is not safe for concurrent use; start one run per consumer instead.
type Run struct {
	inner *runtime.Run
}

// Next advances the run by one step and reports whether a step event was
// yielded. False means the run reached a terminal status; consult Err to
// distinguish completion from failure or cancellation.
func (r *Run) Next(ctx context.Context) bool {
	return r.inner.Next(ctx)
}

// Event returns the step event yielded by the last successful Next call.
func (r *Run) Event() *graph.StepEvent {
	return r.inner.Event()
}

// State returns the current merged state; after a failure, the last
// successfully merged state.
func (r *Run) State() *graph.State {
	return r.inner.State()
}

// Err returns the error that ended the run, or nil while it is live or after
// it finished at End.
func (r *Run) Err() error {
	return r.inner.Err()
}

// ID returns the run's unique identifier.
func (r *Run) ID() string {
	return r.inner.ID()
}

// Status returns the run's current status.
func (r *Run) Status() graph.RunStatus {
	return r.inner.Status()
}

// Steps returns the number of step events yielded so far.
func (r *Run) Steps() int {
	return r.inner.Steps()
}

// Graph returns the graph this run traverses.
func (r *Run) Graph() *graph.Graph {
	return r.inner.Graph()
}
