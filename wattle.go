package wattle

import (
	"context"
	"io"
	"log/slog"

	"github.com/aretw0/wattle/internal/runtime"
	"github.com/aretw0/wattle/pkg/graph"
	"github.com/aretw0/wattle/pkg/ports"
)

// Engine is the high-level entry point for the Wattle library.
// It wraps the internal runtime and provides a simplified API for consumers.
type Engine struct {
	runtime  *runtime.Engine
	recorder ports.RunRecorder
	hooks    graph.LifecycleHooks
	logger   *slog.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks, called synchronously at
// run start, per step, and at run end.
func WithLifecycleHooks(hooks graph.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithRecorder persists each run's trace to the given recorder when the run
// reaches a terminal status.
func WithRecorder(rec ports.RunRecorder) Option {
	return func(e *Engine) {
		e.recorder = rec
	}
}

// New initializes a new Wattle Engine. Without options the engine is silent:
// discard logger, no hooks, no trace recording.
func New(opts ...Option) *Engine {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	// Ensure logger is initialized (so we don't pass nil to runtime, which
	// would overwrite its default).
	if eng.logger == nil {
		eng.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	eng.runtime = runtime.NewEngine(
		runtime.WithLogger(eng.logger),
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithRecorder(eng.recorder),
	)
	return eng
}

// Start validates the initial values against the graph's schema and returns
// a run positioned at the entry node. Nothing executes until the first Next
// call on the returned run.
func (e *Engine) Start(ctx context.Context, g *graph.Graph, initial graph.Update) (*Run, error) {
	r, err := e.runtime.Start(ctx, g, initial)
	if err != nil {
		return nil, err
	}
	return &Run{inner: r}, nil
}

// Invoke runs the graph to completion and returns the final state. It is the
// one-call form for callers that do not consume the step stream.
func (e *Engine) Invoke(ctx context.Context, g *graph.Graph, initial graph.Update) (*graph.State, error) {
	return e.runtime.Invoke(ctx, g, initial)
}

// Recorder returns the configured trace recorder, or nil when the engine does
// not record. Transports use it to serve recorded traces.
func (e *Engine) Recorder() ports.RunRecorder {
	return e.recorder
}

// Logger returns the engine's structured logger.
func (e *Engine) Logger() *slog.Logger {
	return e.logger
}
