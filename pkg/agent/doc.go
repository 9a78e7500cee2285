/*
Package agent assembles decide/act loops on top of the graph engine.

A Decider chooses the next move from the state so far: invoke a tool or
finish with a result. New wires that choice into a compiled graph whose
decide node records the decision, whose conditional edge routes on it and
whose act node executes the chosen tool against a Toolbox, appending the
observation to the scratchpad. Config.FirstAction moves the entry to the
act node so the loop opens with a forced tool invocation before the
decider is consulted at all.

# State Fields

  - task: the goal, seeded by the caller (overwrite)
  - scratchpad: decisions and observations, accumulated in step order
  - decision: the decider's latest move (overwrite)
  - result: set once the decider finishes (overwrite)

# Usage

	tools := agent.NewToolbox()
	tools.Register("search", func(ctx context.Context, input map[string]any) (any, error) {
		query, _ := input["query"].(string)
		return lookup(query), nil
	})

	g, err := agent.New(agent.Config{
		Name:    "researcher",
		Decider: decider,
		Tools:   tools,
	})
	if err != nil {
		log.Fatal(err)
	}

	final, err := engine.Invoke(ctx, g, graph.Update{agent.FieldTask: "find the answer"})
*/
package agent
