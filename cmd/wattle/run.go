package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/wattle"
	"github.com/aretw0/wattle/internal/cli"
	"github.com/aretw0/wattle/internal/presentation/tui"
	"github.com/aretw0/wattle/pkg/graph"
	"github.com/aretw0/wattle/pkg/runner"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <graph>",
	Short: "Execute a built-in graph to completion",
	Long: `Runs one of the built-in graphs and prints the outcome. Seed the initial
state from a YAML file (--initial) or per-field overrides (--set key=value);
--stream emits one JSON line per executed step instead of a final report.
The run's trace stays in process memory unless --redis or --trace-dir picks
a store, matching the serve command.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		initialPath, _ := cmd.Flags().GetString("initial")
		sets, _ := cmd.Flags().GetStringArray("set")
		maxSteps, _ := cmd.Flags().GetInt("max-steps")
		timeout, _ := cmd.Flags().GetDuration("timeout")
		jsonMode, _ := cmd.Flags().GetBool("json")
		stream, _ := cmd.Flags().GetBool("stream")
		redisAddr, _ := cmd.Flags().GetString("redis")
		traceDir, _ := cmd.Flags().GetString("trace-dir")

		logger := rootLogger(cmd)

		g, err := cli.Lookup(args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		initial, err := cli.LoadInitial(initialPath, sets)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		eng, err := cli.BuildEngine(ctx, logger, redisAddr, traceDir)
		if err != nil {
			fmt.Printf("Error initializing engine: %v\n", err)
			os.Exit(1)
		}

		if stream {
			if err := streamRun(ctx, eng, g, initial, maxSteps); err != nil {
				fmt.Printf("Error: %v\n", err)
				os.Exit(1)
			}
			return
		}

		r := runner.New(eng,
			runner.WithMaxSteps(maxSteps),
			runner.WithTimeout(timeout),
			runner.WithLogger(logger),
		)

		res, err := r.Run(ctx, g, initial)
		if res == nil {
			fmt.Printf("Error starting run: %v\n", err)
			os.Exit(1)
		}

		if jsonMode {
			printRunJSON(g.Name(), res, err)
		} else {
			printRunReport(g.Name(), res)
		}

		if res.Status == graph.StatusFailed || errors.Is(err, runner.ErrStepLimit) {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("initial", "", "YAML file with the run's initial state")
	runCmd.Flags().StringArray("set", nil, "Initial state override as key=value (repeatable)")
	runCmd.Flags().Int("max-steps", 0, "Cancel the run after this many steps (0 = unbounded)")
	runCmd.Flags().Duration("timeout", 0, "Cancel the run after this duration (0 = none)")
	runCmd.Flags().Bool("json", false, "Print the outcome as JSON")
	runCmd.Flags().Bool("stream", false, "Print step events as NDJSON while the run executes")
	runCmd.Flags().String("redis", "", "Redis address for trace storage (empty = in-memory)")
	runCmd.Flags().String("trace-dir", "", "Directory for trace files (ignored when --redis is set)")
}

// streamRun pulls the run cursor and emits one JSON line per step, then a
// summary line. The step budget cancels the run but still drains the final
// event so the outcome is accurate.
func streamRun(ctx context.Context, eng *wattle.Engine, g *graph.Graph, initial graph.Update, limit int) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	run, err := eng.Start(ctx, g, initial)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	for run.Next(ctx) {
		if err := enc.Encode(run.Event()); err != nil {
			return err
		}
		if limit > 0 && run.Steps() >= limit && !run.Event().Terminal() {
			cancel()
			run.Next(ctx)
			break
		}
	}

	summary := map[string]any{
		"run_id": run.ID(),
		"graph":  g.Name(),
		"status": run.Status(),
		"steps":  run.Steps(),
	}
	if err := run.Err(); err != nil {
		summary["error"] = err.Error()
	}
	return enc.Encode(summary)
}

func printRunJSON(graphName string, res *runner.Result, runErr error) {
	out := map[string]any{
		"run_id": res.RunID,
		"graph":  graphName,
		"status": res.Status,
		"steps":  res.Steps,
	}
	if res.Final != nil {
		out["final"] = res.Final
	}
	if runErr != nil {
		out["error"] = runErr.Error()
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		fmt.Printf("Error encoding result: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}

func printRunReport(graphName string, res *runner.Result) {
	md := cli.RunMarkdown(graphName, res)
	render := tui.NewMarkdownRenderer(cli.TerminalWidth(100))
	out, err := render(md)
	if err != nil {
		out = md
	}
	fmt.Print(out)
}
