package graph

// Builder accumulates nodes and edges for one graph. Registration problems
// are recorded as they happen and reported by Compile, so call sites can
// chain without per-call error handling.
type Builder struct {
	name   string
	schema *Schema
	nodes  map[string]NodeFunc
	order  []string
	edges  map[string]string
	routes map[string]conditional
	entry  string
	errs   []error
}

// New starts a builder for a named graph over the given schema.
func New(name string, schema *Schema) *Builder {
	return &Builder{
		name:   name,
		schema: schema,
		nodes:  make(map[string]NodeFunc),
		edges:  make(map[string]string),
		routes: make(map[string]conditional),
	}
}

// AddNode registers a named transform. Duplicate, empty and reserved names
// are configuration errors.
func (b *Builder) AddNode(name string, fn NodeFunc) *Builder {
	switch {
	case name == "":
		b.errs = append(b.errs, configf("node with empty name"))
	case name == End:
		b.errs = append(b.errs, configf("node name %q is reserved", End))
	case fn == nil:
		b.errs = append(b.errs, configf("node %q has a nil transform", name))
	default:
		if _, dup := b.nodes[name]; dup {
			b.errs = append(b.errs, configf("duplicate node %q", name))
			return b
		}
		b.nodes[name] = fn
		b.order = append(b.order, name)
	}
	return b
}

// AddEdge registers the unconditional successor of source. A source holds at
// most one outgoing edge of either kind.
func (b *Builder) AddEdge(source, target string) *Builder {
	if b.hasOutgoing(source) {
		b.errs = append(b.errs, configf("node %q already has an outgoing edge", source))
		return b
	}
	b.edges[source] = target
	return b
}

// AddConditionalEdges registers a router and its label-to-target table for
// source. The table is copied; it must not be empty.
func (b *Builder) AddConditionalEdges(source string, router RouterFunc, targets map[string]string) *Builder {
	switch {
	case b.hasOutgoing(source):
		b.errs = append(b.errs, configf("node %q already has an outgoing edge", source))
	case router == nil:
		b.errs = append(b.errs, configf("conditional edge from %q has a nil router", source))
	case len(targets) == 0:
		b.errs = append(b.errs, configf("conditional edge from %q has an empty label map", source))
	default:
		copied := make(map[string]string, len(targets))
		for label, target := range targets {
			copied[label] = target
		}
		b.routes[source] = conditional{router: router, targets: copied}
	}
	return b
}

// SetEntryPoint names the node a run starts at.
func (b *Builder) SetEntryPoint(name string) *Builder {
	b.entry = name
	return b
}

func (b *Builder) hasOutgoing(source string) bool {
	if _, ok := b.edges[source]; ok {
		return true
	}
	_, ok := b.routes[source]
	return ok
}

// Compile validates the accumulated definition and returns an immutable
// graph. It either returns a fully valid graph or no graph: recorded
// registration errors surface first, then the structural checks run. The
// entry must be registered, every edge endpoint must name a node (End
// excepted) and no node reachable from the entry may lack an outgoing edge.
func (b *Builder) Compile() (*Graph, error) {
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}
	if b.schema == nil {
		return nil, configf("graph %q has no schema", b.name)
	}
	if len(b.nodes) == 0 {
		return nil, configf("graph %q has no nodes", b.name)
	}
	if b.entry == "" {
		return nil, configf("graph %q has no entry point", b.name)
	}
	if _, ok := b.nodes[b.entry]; !ok {
		return nil, configf("entry node %q is not registered", b.entry)
	}
	for _, source := range b.sources() {
		if _, ok := b.nodes[source]; !ok {
			return nil, configf("edge from unregistered node %q", source)
		}
	}
	for source, target := range b.edges {
		if err := b.checkTarget(source, target); err != nil {
			return nil, err
		}
	}
	for source, c := range b.routes {
		for _, target := range c.targets {
			if err := b.checkTarget(source, target); err != nil {
				return nil, err
			}
		}
	}
	if err := b.checkReachableDeadEnds(); err != nil {
		return nil, err
	}
	return &Graph{
		name:   b.name,
		schema: b.schema,
		nodes:  b.nodes,
		order:  b.order,
		edges:  b.edges,
		routes: b.routes,
		entry:  b.entry,
	}, nil
}

func (b *Builder) sources() []string {
	seen := make(map[string]bool, len(b.edges)+len(b.routes))
	var out []string
	for _, name := range b.order {
		if _, ok := b.edges[name]; ok {
			seen[name] = true
			out = append(out, name)
		} else if _, ok := b.routes[name]; ok {
			seen[name] = true
			out = append(out, name)
		}
	}
	// Edges whose source was never registered still need reporting.
	for source := range b.edges {
		if !seen[source] {
			out = append(out, source)
		}
	}
	for source := range b.routes {
		if !seen[source] {
			out = append(out, source)
		}
	}
	return out
}

func (b *Builder) checkTarget(source, target string) error {
	if target == End {
		return nil
	}
	if _, ok := b.nodes[target]; !ok {
		return configf("edge %q -> %q targets an unregistered node", source, target)
	}
	return nil
}

// checkReachableDeadEnds walks every path from the entry across both edge
// kinds. A reachable node with no outgoing edge would strand the executor
// with no defined successor, so it is rejected here rather than at run time.
func (b *Builder) checkReachableDeadEnds() error {
	visited := map[string]bool{b.entry: true}
	queue := []string{b.entry}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		var successors []string
		if target, ok := b.edges[node]; ok {
			successors = append(successors, target)
		} else if c, ok := b.routes[node]; ok {
			for _, target := range c.targets {
				successors = append(successors, target)
			}
		} else {
			return configf("node %q is reachable from entry %q but has no outgoing edge", node, b.entry)
		}
		for _, next := range successors {
			if next == End || visited[next] {
				continue
			}
			visited[next] = true
			queue = append(queue, next)
		}
	}
	return nil
}
