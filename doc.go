/*
Package wattle is a directed-graph execution engine for stateful, stepwise
workflows: agent loops, tool pipelines, and any flow best written as named
nodes passing a shared typed state.

It separates the graph definition (nodes, edges, routing) from the run state
(one State per run) and from observation (step events, traces). The
engine in this package is a thin facade over the execution core; transports
and tooling consume runs through the same cursor API.

# Concept

A graph is a set of named nodes, each a function from state to a partial
update, wired by unconditional edges or by routers that pick a labeled edge
from the live state. The state itself is declared as a schema: every field
carries a merge rule, either overwrite (last write wins) or accumulate
(updates append in order). One run walks the graph strictly sequentially from
the entry node until a route reaches the reserved End target, yielding one
event per executed node. Graphs are validated eagerly at compile time and are
immutable afterwards, so any number of runs can share them concurrently.

# Key Features

  - Eager Validation: structural errors (dangling edges, reachable dead ends,
    duplicate nodes) are rejected when the graph is compiled, never mid-run.
  - Caller-Paced Streaming: a run is a cursor; each Next call performs exactly
    one step, so unbounded graphs run only as far as they are pulled.
  - Typed Merging: per-field reducers make state evolution deterministic and
    order-preserving for accumulated history.
  - Run Isolation: runs share nothing mutable; a failed run carries its last
    merged state for diagnosis without touching the graph.

# Usage

Compile a graph once, then start runs against it.

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/wattle"
		"github.com/aretw0/wattle/pkg/graph"
	)

	func main() {
		schema, err := graph.NewSchema(
			graph.Overwrite("count"),
			graph.Accumulate("log"),
		)
		if err != nil {
			log.Fatal(err)
		}

		g, err := graph.New("counter", schema).
			AddNode("decide", func(ctx context.Context, s *graph.State) (graph.Update, error) {
				v, _ := s.Get("count")
				n, _ := v.(int)
				return graph.Update{"count": n + 1}, nil
			}).
			AddNode("act", func(ctx context.Context, s *graph.State) (graph.Update, error) {
				return graph.Update{"log": "acted"}, nil
			}).
			AddConditionalEdges("decide", func(ctx context.Context, s *graph.State) string {
				v, _ := s.Get("count")
				if n, _ := v.(int); n >= 2 {
					return "end"
				}
				return "continue"
			}, map[string]string{
				"continue": "act",
				"end":      graph.End,
			}).
			AddEdge("act", "decide").
			SetEntryPoint("decide").
			Compile()
		if err != nil {
			log.Fatal(err)
		}

		eng := wattle.New()
		run, err := eng.Start(context.Background(), g, graph.Update{"count": 0})
		if err != nil {
			log.Fatal(err)
		}

		for run.Next(context.Background()) {
			ev := run.Event()
			fmt.Println("step", ev.Seq, ev.Node)
		}
		if err := run.Err(); err != nil {
			log.Fatal(err)
		}
		fmt.Println(run.State().Map())
	}
*/
package wattle
