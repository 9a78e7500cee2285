/*
Package runner drives graph runs end to end with the external safeguards the
execution core deliberately leaves out: a step budget and a wall-clock
timeout.

The core imposes no maximum step bound, so a graph whose routers never select
a route to End spins forever. The Runner layers that policy on top of the run
cursor: it pulls steps until the run terminates or a budget is exhausted, then
cancels the run so its trace is still recorded.

# Key Components

  - Runner: pulls a run to completion under budget policy.
  - Result: the collected events, final state and status of one bounded run.

# Usage

	r := runner.New(eng,
		runner.WithMaxSteps(100),
		runner.WithTimeout(30*time.Second),
	)

	res, err := r.Run(ctx, g, graph.Update{"count": 0})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(res.Status, res.Steps)
*/
package runner
