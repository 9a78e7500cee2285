// Package memory provides in-memory adapters, used as defaults and in tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/wattle/pkg/graph"
)

// Recorder implements ports.RunRecorder in memory.
// Safe for concurrent use.
type Recorder struct {
	data map[string]*graph.Trace
	mu   sync.RWMutex
}

// NewRecorder creates a new in-memory recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		data: make(map[string]*graph.Trace),
	}
}

// Save persists the trace in memory.
func (r *Recorder) Save(ctx context.Context, trace *graph.Trace) error {
	// Deep copy to ensure isolation, similar to serialization.
	copied := trace.Clone()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[copied.ID] = copied
	return nil
}

// Load retrieves the trace from memory.
func (r *Recorder) Load(ctx context.Context, id string) (*graph.Trace, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	trace, ok := r.data[id]
	if !ok {
		return nil, graph.ErrTraceNotFound
	}

	// Copy on read so the caller can't mutate stored data by pointer.
	return trace.Clone(), nil
}

// List returns the recorded run IDs, most recently started first.
func (r *Recorder) List(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.data))
	for id := range r.data {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := r.data[ids[i]], r.data[ids[j]]
		if a.StartedAt.Equal(b.StartedAt) {
			return ids[i] < ids[j]
		}
		return a.StartedAt.After(b.StartedAt)
	})
	return ids, nil
}

// Delete removes the trace.
func (r *Recorder) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, id)
	return nil
}
