package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/wattle/pkg/graph"
	"github.com/aretw0/wattle/pkg/runner"
)

// GraphMarkdown renders a graph's topology as a small markdown document.
func GraphMarkdown(g *graph.Graph) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", g.Name())
	fmt.Fprintf(&b, "- **Entry:** `%s`\n", g.Entry())
	fmt.Fprintf(&b, "- **Nodes:** %d\n\n", len(g.Nodes()))

	b.WriteString("## Edges\n\n")
	for _, name := range g.Nodes() {
		if target, ok := g.Edge(name); ok {
			fmt.Fprintf(&b, "- `%s -> %s`\n", name, target)
			continue
		}
		if labels, targets, ok := g.Routes(name); ok {
			sort.Strings(labels)
			for _, label := range labels {
				fmt.Fprintf(&b, "- `%s -> %s` when `%s`\n", name, targets[label], label)
			}
		}
	}
	return b.String()
}

// RunMarkdown renders one run's outcome as a small markdown document.
func RunMarkdown(graphName string, res *runner.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Run %s\n\n", res.RunID)
	fmt.Fprintf(&b, "- **Graph:** %s\n", graphName)
	fmt.Fprintf(&b, "- **Status:** %s\n", res.Status)
	fmt.Fprintf(&b, "- **Steps:** %d\n", res.Steps)

	if len(res.Events) > 0 {
		nodes := make([]string, len(res.Events))
		for i, ev := range res.Events {
			nodes[i] = ev.Node
		}
		fmt.Fprintf(&b, "- **Path:** `%s`\n", strings.Join(nodes, " -> "))
	}

	if res.Final != nil {
		b.WriteString("\n## Final State\n\n")
		for _, name := range res.Final.Keys() {
			v, _ := res.Final.Get(name)
			fmt.Fprintf(&b, "- **%s:** %v\n", name, v)
		}
	}
	return b.String()
}
