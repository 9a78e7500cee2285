/*
Package dsl provides a fluent Go layer for constructing wattle graphs.

It trades explicit builder calls for chainable step definitions, which reads
well for linear pipelines and keeps branch declarations next to the step
they leave from. Compile returns a regular *graph.Graph; nothing here
extends what pkg/graph can express.

Example usage:

	flow := dsl.NewFlow("signup",
		graph.Overwrite("email"),
		graph.Accumulate("log"),
	)

	flow.Step("validate", validate).
		Then("store", store).
		Then("notify", notify).
		End()

	g, err := flow.Compile()
	// ... run g on an Engine ...

The first registered step is the entry point unless Start overrides it.
*/
package dsl
