package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/wattle/pkg/graph"
)

// Field names of the agent schema.
const (
	FieldTask       = "task"
	FieldScratchpad = "scratchpad"
	FieldDecision   = "decision"
	FieldResult     = "result"
)

// Config assembles one agent graph.
type Config struct {
	// Name identifies the graph. Defaults to "agent".
	Name string

	// Decider chooses each move. Required.
	Decider Decider

	// Tools resolves the actions the decider asks for. Nil means an empty
	// toolbox, under which every action fails.
	Tools *Toolbox

	// FirstAction, when set, moves the entry point to the act node, which
	// plays this move before the decider is ever consulted. The loop's first
	// event is then the forced tool action.
	FirstAction *Action
}

// New compiles the decide/act loop. The decide node records the decider's
// move, the conditional edge routes on it (act invokes the tool, finish goes
// to End) and the act node executes the chosen tool, appending its
// observation to the scratchpad.
func New(cfg Config) (*graph.Graph, error) {
	if cfg.Decider == nil {
		return nil, &graph.ConfigurationError{Detail: "agent has no decider"}
	}
	tools := cfg.Tools
	if tools == nil {
		tools = NewToolbox()
	}
	name := cfg.Name
	if name == "" {
		name = "agent"
	}

	schema, err := graph.NewSchema(
		graph.Overwrite(FieldTask),
		graph.Accumulate(FieldScratchpad),
		graph.Overwrite(FieldDecision),
		graph.Overwrite(FieldResult),
	)
	if err != nil {
		return nil, err
	}

	decide := func(ctx context.Context, s *graph.State) (graph.Update, error) {
		d, err := cfg.Decider.Decide(ctx, s)
		if err != nil {
			return nil, err
		}
		if (d.Action == nil) == (d.Finish == nil) {
			return nil, errors.New("decider must return exactly one of action or finish")
		}
		return moveUpdate(d), nil
	}

	act := func(ctx context.Context, s *graph.State) (graph.Update, error) {
		var (
			d      Decision
			opener bool
		)
		if v, ok := s.Get(FieldDecision); ok {
			rec, ok := v.(Decision)
			if !ok {
				return nil, fmt.Errorf("decision field holds %T", v)
			}
			d = rec
		} else if cfg.FirstAction != nil {
			// Opening move: this node is the entry and no decision exists yet.
			d = Decision{Action: cfg.FirstAction}
			opener = true
		}
		if d.Action == nil {
			return nil, errors.New("no pending action to execute")
		}
		observation, err := tools.Execute(ctx, d.Action.Tool, d.Action.Input)
		if err != nil {
			return nil, fmt.Errorf("tool %q: %w", d.Action.Tool, err)
		}
		note := fmt.Sprintf("observation[%s]: %v", d.Action.Tool, observation)
		if opener {
			return graph.Update{
				FieldDecision:   d,
				FieldScratchpad: []any{fmt.Sprintf("forced: %s", d.Action.Tool), note},
			}, nil
		}
		return graph.Update{FieldScratchpad: note}, nil
	}

	entry := "decide"
	if cfg.FirstAction != nil {
		entry = "act"
	}

	return graph.New(name, schema).
		AddNode("decide", decide).
		AddNode("act", act).
		SetEntryPoint(entry).
		AddConditionalEdges("decide", DecisionRouter("act", "finish"), map[string]string{
			"act":    "act",
			"finish": graph.End,
		}).
		AddEdge("act", "decide").
		Compile()
}

// moveUpdate turns one decision into the update the decide node returns.
func moveUpdate(d Decision) graph.Update {
	update := graph.Update{FieldDecision: d}
	if d.Finish != nil {
		update[FieldScratchpad] = "finish"
		update[FieldResult] = d.Finish.Result
		return update
	}
	update[FieldScratchpad] = fmt.Sprintf("action: %s", d.Action.Tool)
	return update
}

// currentDecision reads the recorded decision back out of the state.
func currentDecision(s *graph.State) (Decision, error) {
	v, ok := s.Get(FieldDecision)
	if !ok {
		return Decision{}, errors.New("no decision recorded")
	}
	d, ok := v.(Decision)
	if !ok {
		return Decision{}, fmt.Errorf("decision field holds %T", v)
	}
	return d, nil
}
