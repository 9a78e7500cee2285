package agent

import (
	"context"
	"fmt"
	"sync"
)

// ToolFunc is the signature of one tool implementation. It receives the
// action's input and returns an observation or an error.
type ToolFunc func(ctx context.Context, input map[string]any) (any, error)

// Toolbox manages the tools an agent may invoke.
type Toolbox struct {
	mu    sync.RWMutex
	tools map[string]ToolFunc
	order []string
}

// NewToolbox creates a new empty toolbox.
func NewToolbox() *Toolbox {
	return &Toolbox{
		tools: make(map[string]ToolFunc),
	}
}

// Register adds a tool to the toolbox.
// If a tool with the same name exists, it is overwritten.
func (t *Toolbox) Register(name string, fn ToolFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.tools[name]; !ok {
		t.order = append(t.order, name)
	}
	t.tools[name] = fn
}

// Names returns the registered tool names in registration order.
func (t *Toolbox) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Execute looks up a tool by name and executes it.
// Returns an error if the tool is not found.
func (t *Toolbox) Execute(ctx context.Context, name string, input map[string]any) (any, error) {
	t.mu.RLock()
	fn, ok := t.tools[name]
	t.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("tool not found: %s", name)
	}

	return fn(ctx, input)
}
