// Package file persists run traces as JSON files in a directory.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/wattle/pkg/graph"
)

// Recorder implements ports.RunRecorder on the local filesystem. Each trace
// is one JSON file named after its run ID.
type Recorder struct {
	BasePath string
}

// New creates a Recorder rooted at basePath. If basePath is empty, it
// defaults to ".wattle/traces".
func New(basePath string) *Recorder {
	if basePath == "" {
		basePath = filepath.Join(".wattle", "traces")
	}
	return &Recorder{BasePath: basePath}
}

// Save persists the trace to a JSON file atomically.
// It writes to a temporary file first, syncs via fsync, and then renames it
// to the destination, so a crash never leaves a partial trace behind.
func (r *Recorder) Save(ctx context.Context, trace *graph.Trace) error {
	if trace == nil || trace.ID == "" {
		return fmt.Errorf("trace ID cannot be empty")
	}

	if err := os.MkdirAll(r.BasePath, 0o755); err != nil {
		return fmt.Errorf("failed to ensure trace directory: %w", err)
	}

	destPath := r.path(trace.ID)

	data, err := json.MarshalIndent(trace, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal trace: %w", err)
	}

	// Same directory as the destination, so the rename stays on one filesystem.
	tmpFile, err := os.CreateTemp(r.BasePath, "tmp-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // Remove if still present (not renamed)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Renaming an open file fails on Windows.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// os.Rename cannot replace an existing file on Windows either, so drop
	// the old trace first. The brief gap beats a partially written file.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to replace existing trace file: %w", err)
		}
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file into place: %w", err)
	}
	return nil
}

// Load retrieves the trace from its JSON file.
func (r *Recorder) Load(ctx context.Context, id string) (*graph.Trace, error) {
	if id == "" {
		return nil, graph.ErrTraceNotFound
	}

	data, err := os.ReadFile(r.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, graph.ErrTraceNotFound
		}
		return nil, fmt.Errorf("failed to read trace file: %w", err)
	}

	var trace graph.Trace
	if err := json.Unmarshal(data, &trace); err != nil {
		return nil, fmt.Errorf("failed to unmarshal trace: %w", err)
	}
	return &trace, nil
}

// List returns the recorded run IDs, most recently started first. Ordering
// needs each trace's start time, so listing reads every file in the
// directory.
func (r *Recorder) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(r.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list traces: %w", err)
	}

	type stamped struct {
		id      string
		started time.Time
	}
	var traces []stamped
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, "tmp-") {
			continue
		}
		id := strings.TrimSuffix(name, ".json")
		tr, err := r.Load(ctx, id)
		if err != nil {
			continue
		}
		traces = append(traces, stamped{id: id, started: tr.StartedAt})
	}

	sort.Slice(traces, func(i, j int) bool {
		if traces[i].started.Equal(traces[j].started) {
			return traces[i].id < traces[j].id
		}
		return traces[i].started.After(traces[j].started)
	})

	ids := make([]string, len(traces))
	for i, tr := range traces {
		ids[i] = tr.id
	}
	return ids, nil
}

// Delete removes the trace file. Deleting an absent ID is not an error.
func (r *Recorder) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := os.Remove(r.path(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete trace file: %w", err)
	}
	return nil
}

func (r *Recorder) path(id string) string {
	return filepath.Join(r.BasePath, id+".json")
}
