package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/wattle"
	"github.com/aretw0/wattle/pkg/graph"
)

// ErrStepLimit is returned when a run exhausts the configured step budget
// before reaching End.
var ErrStepLimit = errors.New("step limit exceeded")

// Runner pulls runs to completion under budget policy. The zero budget means
// no bound; a Runner without budgets behaves like Engine.Invoke.
type Runner struct {
	// MaxSteps bounds the number of step events pulled per run. Zero means
	// unbounded; combine with Timeout when running graphs whose termination
	// is not guaranteed.
	MaxSteps int

	// Timeout bounds the wall-clock duration of one run. Zero disables it.
	Timeout time.Duration

	// Logger is used for internal debug logging. If nil, logs are discarded.
	Logger *slog.Logger

	engine *wattle.Engine
}

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithMaxSteps bounds the number of steps pulled per run.
func WithMaxSteps(n int) Option {
	return func(r *Runner) {
		r.MaxSteps = n
	}
}

// WithTimeout bounds the wall-clock duration of one run.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) {
		r.Timeout = d
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// New creates a Runner executing runs on the given engine.
func New(engine *wattle.Engine, opts ...Option) *Runner {
	r := &Runner{
		engine: engine,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Result is the outcome of one bounded run.
type Result struct {
	RunID  string
	Status graph.RunStatus
	Steps  int
	Events []*graph.StepEvent
	Final  *graph.State
}

// Run starts a run and pulls it until it terminates or a budget is
// exhausted. On step budget exhaustion the run is cancelled, so its trace is
// still recorded, and the partial result is returned alongside ErrStepLimit.
// A timeout surfaces as the context's deadline error with the same partial
// result semantics.
func (r *Runner) Run(ctx context.Context, g *graph.Graph, initial graph.Update) (*Result, error) {
	if r.Timeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, r.Timeout)
		defer cancelTimeout()
	}
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	run, err := r.engine.Start(runCtx, g, initial)
	if err != nil {
		return nil, err
	}

	res := &Result{RunID: run.ID()}
	for run.Next(runCtx) {
		res.Events = append(res.Events, run.Event())
		if r.MaxSteps > 0 && run.Steps() >= r.MaxSteps && !run.Event().Terminal() {
			r.Logger.Warn("step budget exhausted", "run_id", run.ID(), "steps", run.Steps())
			cancel()
			// One more pull so the run observes the cancellation and
			// finalizes its trace.
			run.Next(runCtx)
			r.collect(res, run)
			return res, fmt.Errorf("%w after %d steps", ErrStepLimit, run.Steps())
		}
	}
	r.collect(res, run)
	if err := run.Err(); err != nil {
		return res, err
	}
	return res, nil
}

func (r *Runner) collect(res *Result, run *wattle.Run) {
	res.Status = run.Status()
	res.Steps = run.Steps()
	res.Final = run.State()
}
