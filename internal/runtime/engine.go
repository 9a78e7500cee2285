// Package runtime drives compiled graphs step by step. It owns the run state
// machine and the step stream; everything above it (facade, transports,
// tooling) consumes runs through the cursor API.
package runtime

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/wattle/pkg/graph"
	"github.com/aretw0/wattle/pkg/ports"
)

// Engine executes compiled graphs. It holds configuration only, never per-run
// state: every Start returns an independent Run, so one engine serves any
// number of concurrent runs over shared read-only graphs.
type Engine struct {
	logger   *slog.Logger
	hooks    graph.LifecycleHooks
	recorder ports.RunRecorder
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks, invoked synchronously at
// run start, after each step, and at run end.
func WithLifecycleHooks(hooks graph.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithRecorder sets the trace recorder. Each run's trace is saved once, when
// the run reaches a terminal status.
func WithRecorder(rec ports.RunRecorder) EngineOption {
	return func(e *Engine) {
		e.recorder = rec
	}
}

// NewEngine creates an engine. Without options it runs silently: discard
// logger, no hooks, no recorder.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start validates the initial values against the graph's schema and returns a
// run positioned at the entry node. Nothing executes until the first Next
// call. Initial values naming undeclared fields fail here, eagerly, with a
// ConfigurationError.
func (e *Engine) Start(ctx context.Context, g *graph.Graph, initial graph.Update) (*Run, error) {
	if g == nil {
		return nil, &graph.ConfigurationError{Detail: "no graph to run"}
	}
	state, err := g.Schema().Initialize(initial)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	r := &Run{
		engine:  e,
		graph:   g,
		id:      uuid.NewString(),
		status:  graph.StatusReady,
		current: g.Entry(),
		state:   state,
		started: now,
		trace: &graph.Trace{
			Graph:     g.Name(),
			Status:    graph.StatusReady,
			StartedAt: now,
		},
	}
	r.trace.ID = r.id
	r.logger = e.logger.With("graph", g.Name(), "run_id", r.id)
	r.logger.InfoContext(ctx, "run started", "entry", g.Entry())
	if e.hooks.OnRunStart != nil {
		e.hooks.OnRunStart(ctx, &graph.RunEvent{
			EventBase: graph.EventBase{Timestamp: now, Type: graph.EventRunStart, RunID: r.id},
			Graph:     g.Name(),
			Status:    graph.StatusReady,
		})
	}
	return r, nil
}

// Invoke starts a run and drains it, returning the final state. It is the
// one-call form for callers that do not consume the step stream. On failure
// the returned error carries the failing node and the last merged state where
// the error kind provides them.
func (e *Engine) Invoke(ctx context.Context, g *graph.Graph, initial graph.Update) (*graph.State, error) {
	r, err := e.Start(ctx, g, initial)
	if err != nil {
		return nil, err
	}
	for r.Next(ctx) {
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return r.State(), nil
}
