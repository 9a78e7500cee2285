package agent

import (
	"context"
	"fmt"

	"github.com/aretw0/wattle/pkg/graph"
	"github.com/mitchellh/mapstructure"
)

// Action asks for one tool invocation.
type Action struct {
	Tool  string         `json:"tool" mapstructure:"tool"`
	Input map[string]any `json:"input,omitempty" mapstructure:"input"`
}

// Finish ends the loop with a result.
type Finish struct {
	Result any `json:"result,omitempty" mapstructure:"result"`
}

// Decision is the decider's move. Exactly one of Action or Finish must be
// set.
type Decision struct {
	Action *Action `json:"action,omitempty" mapstructure:"action"`
	Finish *Finish `json:"finish,omitempty" mapstructure:"finish"`
}

// Decider chooses the next move from the state so far.
type Decider interface {
	Decide(ctx context.Context, s *graph.State) (Decision, error)
}

// DeciderFunc adapts a function to the Decider interface.
type DeciderFunc func(ctx context.Context, s *graph.State) (Decision, error)

// Decide implements Decider.
func (f DeciderFunc) Decide(ctx context.Context, s *graph.State) (Decision, error) {
	return f(ctx, s)
}

// DecodeInput decodes an action's raw input into a typed struct honoring
// mapstructure tags, which is how tool implementations usually start.
func DecodeInput[T any](input map[string]any) (T, error) {
	var out T
	if err := mapstructure.Decode(input, &out); err != nil {
		return out, fmt.Errorf("failed to decode tool input: %w", err)
	}
	return out, nil
}
