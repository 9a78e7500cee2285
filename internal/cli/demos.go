package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/wattle/pkg/agent"
	"github.com/aretw0/wattle/pkg/dsl"
	"github.com/aretw0/wattle/pkg/graph"
)

// Demos returns the built-in demonstration graphs, in display order. They
// give the run, serve and mcp commands something to execute without any
// project setup.
func Demos() ([]*graph.Graph, error) {
	counter, err := counterGraph()
	if err != nil {
		return nil, err
	}
	echoAgent, err := echoAgentGraph()
	if err != nil {
		return nil, err
	}
	pipeline, err := pipelineGraph()
	if err != nil {
		return nil, err
	}
	return []*graph.Graph{counter, echoAgent, pipeline}, nil
}

// Lookup finds one built-in graph by name.
func Lookup(name string) (*graph.Graph, error) {
	graphs, err := Demos()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(graphs))
	for _, g := range graphs {
		if g.Name() == name {
			return g, nil
		}
		names = append(names, g.Name())
	}
	return nil, fmt.Errorf("unknown graph %q, available: %s", name, strings.Join(names, ", "))
}

// counterGraph loops a single node until the count reaches three. Seed the
// count field to start higher.
func counterGraph() (*graph.Graph, error) {
	schema, err := graph.NewSchema(graph.Overwrite("count"), graph.Accumulate("log"))
	if err != nil {
		return nil, err
	}
	return graph.New("counter", schema).
		AddNode("bump", func(_ context.Context, s *graph.State) (graph.Update, error) {
			v, _ := s.Get("count")
			n, _ := v.(int)
			n++
			return graph.Update{"count": n, "log": fmt.Sprintf("count is %d", n)}, nil
		}).
		SetEntryPoint("bump").
		AddConditionalEdges("bump", func(_ context.Context, s *graph.State) string {
			v, _ := s.Get("count")
			if n, _ := v.(int); n >= 3 {
				return "done"
			}
			return "again"
		}, map[string]string{"again": "bump", "done": graph.End}).
		Compile()
}

// pipelineGraph is a linear extract/transform/load chain built with the
// flow DSL. Seed the payload field to process other text.
func pipelineGraph() (*graph.Graph, error) {
	flow := dsl.NewFlow("pipeline", graph.Overwrite("payload"), graph.Accumulate("log"))
	flow.Step("extract", func(_ context.Context, s *graph.State) (graph.Update, error) {
		v, ok := s.Get("payload")
		text, _ := v.(string)
		if !ok || text == "" {
			text = "hello wattle"
		}
		return graph.Update{"payload": text, "log": "extracted"}, nil
	}).
		Then("transform", func(_ context.Context, s *graph.State) (graph.Update, error) {
			v, _ := s.Get("payload")
			text, _ := v.(string)
			return graph.Update{"payload": strings.ToUpper(text), "log": "transformed"}, nil
		}).
		Then("load", func(_ context.Context, _ *graph.State) (graph.Update, error) {
			return graph.Update{"log": "loaded"}, nil
		}).
		End()
	return flow.Compile()
}

// echoAgentGraph is a decide/act loop with a deterministic decider: echo the
// task once through the toolbox, then finish with the observation. Seed the
// task field to change what it says.
func echoAgentGraph() (*graph.Graph, error) {
	tools := agent.NewToolbox()
	tools.Register("echo", func(_ context.Context, input map[string]any) (any, error) {
		text, _ := input["text"].(string)
		return text, nil
	})

	decider := agent.DeciderFunc(func(_ context.Context, s *graph.State) (agent.Decision, error) {
		if v, ok := s.Get(agent.FieldScratchpad); ok {
			if entries, _ := v.([]any); len(entries) > 0 {
				last := fmt.Sprintf("%v", entries[len(entries)-1])
				if _, after, ok := strings.Cut(last, "]: "); ok {
					last = after
				}
				return agent.Decision{Finish: &agent.Finish{Result: last}}, nil
			}
		}

		task := "say hello"
		if v, ok := s.Get(agent.FieldTask); ok {
			if text, _ := v.(string); text != "" {
				task = text
			}
		}
		return agent.Decision{Action: &agent.Action{Tool: "echo", Input: map[string]any{"text": task}}}, nil
	})

	return agent.New(agent.Config{
		Name:    "echo-agent",
		Decider: decider,
		Tools:   tools,
	})
}
