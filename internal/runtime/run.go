package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/wattle/pkg/graph"
)

// Run is one in-flight traversal of a graph. It is a caller-paced cursor:
// each Next call performs at most one step, so the step sequence is lazy and
// an unbounded graph only runs as far as the caller pulls it.
//
// The usual loop:
//
//	run, err := engine.Start(ctx, g, initial)
//	...
//	for run.Next(ctx) {
//	    ev := run.Event()
//	    ...
//	}
//	if err := run.Err(); err != nil {
//	    ...
//	}
//
// A Run is owned by a single caller and is not safe for concurrent use.
// Independent runs of the same graph are fully isolated from each other.
type Run struct {
	engine  *Engine
	graph   *graph.Graph
	logger  *slog.Logger
	id      string
	status  graph.RunStatus
	current string
	state   *graph.State
	event   *graph.StepEvent
	seq     int
	started time.Time
	trace   *graph.Trace
	err     error
	pending error
}

// ID returns the run's unique identifier.
func (r *Run) ID() string {
	return r.id
}

// Graph returns the graph this run traverses.
func (r *Run) Graph() *graph.Graph {
	return r.graph
}

// Status returns the run's current status.
func (r *Run) Status() graph.RunStatus {
	return r.status
}

// Steps returns the number of step events yielded so far, the terminal
// marker included.
func (r *Run) Steps() int {
	return r.seq
}

// Event returns the step event yielded by the last successful Next call. Nil
// before the first step.
func (r *Run) Event() *graph.StepEvent {
	return r.event
}

// State returns the current merged state. After a failed Next it is the last
// successfully merged state, kept for diagnosis. The snapshot is read-only
// and stays valid while the run advances.
func (r *Run) State() *graph.State {
	return r.state
}

// Err returns the error that ended the run: a NodeExecutionError or
// RoutingError for a failed run, the context's error for a cancelled one, nil
// while the run is live or after it finished.
func (r *Run) Err() error {
	return r.err
}

// Next advances the run by one step and reports whether a step event was
// yielded. It returns false when the run has reached a terminal status;
// consult Err to distinguish completion from failure.
//
// One call does exactly one of:
//   - yield the terminal marker and finish, when the walk has arrived at End;
//   - invoke the current node, merge its update, yield the step event, and
//     resolve the successor;
//   - end the run without an event, on cancellation or on a failure carried
//     over from the previous step's routing.
//
// A routing failure is detected after its step event has been yielded, so the
// event stays observable and the run fails on the following call.
func (r *Run) Next(ctx context.Context) bool {
	if r.status.Terminal() {
		return false
	}
	if r.pending != nil {
		r.fail(ctx, r.pending)
		return false
	}
	if err := ctx.Err(); err != nil {
		r.cancel(ctx, err)
		return false
	}
	if r.status == graph.StatusReady {
		r.transition(graph.StatusRunning)
	}
	if r.current == graph.End {
		r.yield(ctx, graph.End, nil)
		r.end(ctx, graph.StatusFinished, nil)
		return true
	}
	fn, ok := r.graph.Node(r.current)
	if !ok {
		// Unreachable on a compiled graph; Compile rejects dangling edges.
		r.fail(ctx, &graph.ConfigurationError{Detail: fmt.Sprintf("node %q is not registered", r.current)})
		return false
	}
	update, err := fn(ctx, r.state.Clone())
	if err != nil {
		r.fail(ctx, &graph.NodeExecutionError{Node: r.current, State: r.state, Cause: err})
		return false
	}
	merged, err := r.graph.Schema().Apply(r.state, update)
	if err != nil {
		r.fail(ctx, &graph.NodeExecutionError{Node: r.current, State: r.state, Cause: err})
		return false
	}
	r.state = merged
	r.yield(ctx, r.current, update)
	next, err := r.graph.ResolveNext(ctx, r.current, r.state)
	if err != nil {
		r.pending = err
		return true
	}
	r.current = next
	return true
}

func (r *Run) yield(ctx context.Context, node string, update graph.Update) {
	r.seq++
	now := time.Now()
	ev := &graph.StepEvent{
		EventBase: graph.EventBase{Timestamp: now, Type: graph.EventStep, RunID: r.id},
		Seq:       r.seq,
		Node:      node,
		Update:    update.Clone(),
	}
	r.event = ev
	r.trace.Steps = append(r.trace.Steps, graph.TraceStep{
		Seq:    r.seq,
		Node:   node,
		Update: update.Clone(),
		At:     now,
	})
	r.logger.DebugContext(ctx, "step", "seq", r.seq, "node", node)
	if r.engine.hooks.OnStep != nil {
		r.engine.hooks.OnStep(ctx, ev)
	}
}

func (r *Run) fail(ctx context.Context, cause error) {
	r.err = cause
	r.end(ctx, graph.StatusFailed, cause)
}

func (r *Run) cancel(ctx context.Context, cause error) {
	r.err = cause
	r.end(ctx, graph.StatusCancelled, cause)
}

func (r *Run) transition(to graph.RunStatus) {
	if !r.status.CanTransition(to) {
		r.logger.Warn("invalid run status transition", "from", r.status, "to", to)
		return
	}
	r.status = to
	r.trace.Status = to
}

// end moves the run to a terminal status, closes out the trace, and notifies
// the logger, recorder and hooks. It runs exactly once per run.
func (r *Run) end(ctx context.Context, to graph.RunStatus, cause error) {
	r.transition(to)
	now := time.Now()
	duration := now.Sub(r.started)
	r.trace.EndedAt = now
	r.trace.Final = r.state.Map()
	if cause != nil {
		r.trace.Error = cause.Error()
	}
	switch {
	case cause == nil:
		r.logger.InfoContext(ctx, "run finished", "steps", r.seq, "duration", duration)
	case to == graph.StatusCancelled:
		r.logger.WarnContext(ctx, "run cancelled", "steps", r.seq, "duration", duration, "error", cause)
	default:
		r.logger.ErrorContext(ctx, "run failed", "steps", r.seq, "duration", duration, "error", cause)
	}
	if r.engine.recorder != nil {
		// The trace must survive the cancellation that ended the run.
		saveCtx := context.WithoutCancel(ctx)
		if err := r.engine.recorder.Save(saveCtx, r.trace); err != nil {
			r.logger.WarnContext(ctx, "trace not recorded", "error", err)
		}
	}
	if r.engine.hooks.OnRunEnd != nil {
		ev := &graph.RunEvent{
			EventBase: graph.EventBase{Timestamp: now, Type: graph.EventRunEnd, RunID: r.id},
			Graph:     r.graph.Name(),
			Status:    r.status,
			Steps:     r.seq,
			Duration:  duration,
		}
		if cause != nil {
			ev.Err = cause.Error()
		}
		r.engine.hooks.OnRunEnd(ctx, ev)
	}
}
