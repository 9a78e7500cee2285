package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/wattle/internal/cli"
	"github.com/aretw0/wattle/internal/presentation/mermaid"
	"github.com/aretw0/wattle/internal/presentation/tui"
	"github.com/aretw0/wattle/pkg/graph"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Inspect the built-in graphs",
}

var graphLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List the built-in graphs",
	Run: func(cmd *cobra.Command, args []string) {
		graphs, err := cli.Demos()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		for _, g := range graphs {
			fmt.Printf("%s (%d nodes, entry %s)\n", g.Name(), len(g.Nodes()), g.Entry())
		}
	},
}

var graphShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Describe one graph's topology",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		plain, _ := cmd.Flags().GetBool("plain")

		g := mustLookup(args[0])
		md := cli.GraphMarkdown(g)
		if plain {
			fmt.Print(md)
			return
		}

		render := tui.NewMarkdownRenderer(cli.TerminalWidth(100))
		out, err := render(md)
		if err != nil {
			out = md
		}
		fmt.Print(out)
	},
}

var graphDiagramCmd = &cobra.Command{
	Use:   "diagram <name>",
	Short: "Export one graph as a Mermaid diagram",
	Long:  `Outputs a Mermaid diagram (graph TD) representing the flow logic.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		g := mustLookup(args[0])
		fmt.Print(mermaid.Generate(g, nil))
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.AddCommand(graphLsCmd)
	graphCmd.AddCommand(graphShowCmd)
	graphCmd.AddCommand(graphDiagramCmd)

	graphShowCmd.Flags().Bool("plain", false, "Skip terminal rendering and print raw markdown")
}

func mustLookup(name string) *graph.Graph {
	g, err := cli.Lookup(name)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	return g
}
