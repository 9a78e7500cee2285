package ports

import (
	"context"

	"github.com/aretw0/wattle/pkg/graph"
)

// RunRecorder persists run traces for after-the-fact inspection. The engine
// saves a trace once, when the run reaches a terminal status; a live run never
// reads a trace back, so implementations need no transactional guarantees
// beyond whole-trace replacement.
type RunRecorder interface {
	// Save persists the trace, replacing any trace with the same ID.
	// The trace must not be retained by reference after Save returns.
	Save(ctx context.Context, trace *graph.Trace) error

	// Load retrieves the trace for a run ID.
	// Returns graph.ErrTraceNotFound if no trace exists for the ID.
	Load(ctx context.Context, id string) (*graph.Trace, error)

	// List returns the recorded run IDs, most recently started first.
	List(ctx context.Context) ([]string, error)

	// Delete removes the trace for a run ID. Deleting an absent ID is not
	// an error.
	Delete(ctx context.Context, id string) error
}
