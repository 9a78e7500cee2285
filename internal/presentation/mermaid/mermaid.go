// Package mermaid renders compiled graphs as Mermaid flowchart text.
package mermaid

import (
	"fmt"
	"strings"

	"github.com/aretw0/wattle/pkg/graph"
)

// Overlay highlights the progress of one run on top of the static topology.
type Overlay struct {
	Visited []string
	Current string
}

// FromTrace builds an overlay from a recorded trace: every step's node is
// marked visited and the last one current. A nil or empty trace yields no
// overlay.
func FromTrace(tr *graph.Trace) *Overlay {
	if tr == nil || len(tr.Steps) == 0 {
		return nil
	}
	o := &Overlay{Visited: make([]string, 0, len(tr.Steps))}
	for _, step := range tr.Steps {
		o.Visited = append(o.Visited, step.Node)
	}
	o.Current = tr.Steps[len(tr.Steps)-1].Node
	return o
}

// Generate produces a Mermaid flowchart (graph TD) for g.
// It applies semantic styling:
// - Entry: ((Circle))
// - End: (((Double circle)))
// - Default: [Rectangle]
// Conditional edges carry their label on the arrow. Overlay styles
// (visited/current) are appended when an overlay is provided.
func Generate(g *graph.Graph, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	endTargeted := false
	for _, name := range g.Nodes() {
		safeID := sanitizeID(name)

		opener, closer := "[", "]"
		if name == g.Entry() {
			opener, closer = "((", "))"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, name, closer))

		if target, ok := g.Edge(name); ok {
			endTargeted = endTargeted || target == graph.End
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", safeID, sanitizeID(target)))
			continue
		}

		labels, targets, ok := g.Routes(name)
		if !ok {
			continue
		}
		for _, label := range labels {
			target := targets[label]
			endTargeted = endTargeted || target == graph.End
			// Escape double quotes so the label survives the Mermaid parser.
			safeLabel := strings.ReplaceAll(label, `"`, "'")
			sb.WriteString(fmt.Sprintf("    %s -- \"%s\" --> %s\n", safeID, safeLabel, sanitizeID(target)))
		}
	}

	if endTargeted {
		sb.WriteString(fmt.Sprintf("    %s(((\"%s\")))\n", sanitizeID(graph.End), graph.End))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Run overlay\n")
		// Force black text for high contrast regardless of theme.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.Visited {
			safeID := sanitizeID(id)
			if safeID == "" || seen[safeID] {
				continue
			}
			seen[safeID] = true
			sb.WriteString(fmt.Sprintf("    class %s visited;\n", safeID))
		}
		if overlay.Current != "" {
			sb.WriteString(fmt.Sprintf("    class %s current;\n", sanitizeID(overlay.Current)))
		}
	}

	return sb.String()
}

// sanitizeID maps a node name onto the identifier charset Mermaid accepts.
func sanitizeID(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, id)
}
