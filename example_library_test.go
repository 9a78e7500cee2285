package wattle_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/wattle"
	"github.com/aretw0/wattle/pkg/adapters/memory"
	"github.com/aretw0/wattle/pkg/graph"
)

// ExampleNew_recorder demonstrates embedding Wattle as a library with hooks
// and an in-memory trace recorder, then reading the trace back after the run.
func ExampleNew_recorder() {
	schema, err := graph.NewSchema(graph.Accumulate("visited"))
	if err != nil {
		log.Fatal(err)
	}

	visit := func(name string) graph.NodeFunc {
		return func(ctx context.Context, s *graph.State) (graph.Update, error) {
			return graph.Update{"visited": name}, nil
		}
	}

	g, err := graph.New("tour", schema).
		AddNode("first", visit("first")).
		AddNode("second", visit("second")).
		AddEdge("first", "second").
		AddEdge("second", graph.End).
		SetEntryPoint("first").
		Compile()
	if err != nil {
		log.Fatal(err)
	}

	recorder := memory.NewRecorder()
	eng := wattle.New(
		wattle.WithRecorder(recorder),
		wattle.WithLifecycleHooks(graph.LifecycleHooks{
			OnStep: func(ctx context.Context, e *graph.StepEvent) {
				fmt.Println("observed:", e.Node)
			},
		}),
	)

	ctx := context.Background()
	run, err := eng.Start(ctx, g, nil)
	if err != nil {
		log.Fatal(err)
	}
	for run.Next(ctx) {
	}
	if err := run.Err(); err != nil {
		log.Fatal(err)
	}

	trace, err := recorder.Load(ctx, run.ID())
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("trace: %s, %d steps, visited %v\n", trace.Status, len(trace.Steps), trace.Final["visited"])

	// Output:
	// observed: first
	// observed: second
	// observed: __end__
	// trace: finished, 3 steps, visited [first second]
}
