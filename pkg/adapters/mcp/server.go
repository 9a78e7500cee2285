package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/wattle"
	"github.com/aretw0/wattle/internal/presentation/mermaid"
	"github.com/aretw0/wattle/pkg/graph"
	"github.com/aretw0/wattle/pkg/runner"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RunOutcome is the structured result of one run, shared by the run_graph
// tool across transports.
type RunOutcome struct {
	RunID  string          `json:"run_id" jsonschema_description:"Identifier of the run"`
	Graph  string          `json:"graph" jsonschema_description:"Name of the executed graph"`
	Status graph.RunStatus `json:"status" jsonschema_description:"Terminal status: finished, failed or cancelled"`
	Steps  int             `json:"steps" jsonschema_description:"Number of step events the run yielded"`
	Final  map[string]any  `json:"final,omitempty" jsonschema_description:"Final merged state"`
	Error  string          `json:"error,omitempty" jsonschema_description:"Failure detail when the run did not finish"`
}

// GraphSummary is one catalog entry.
type GraphSummary struct {
	Name  string `json:"name" jsonschema_description:"Graph name"`
	Entry string `json:"entry" jsonschema_description:"Entry node"`
	Nodes int    `json:"nodes" jsonschema_description:"Number of registered nodes"`
}

// Edge is one entry of a topology's edge table. Label is set on conditional
// edges only.
type Edge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label,omitempty"`
}

// GraphTopology is the full structure of one graph.
type GraphTopology struct {
	Name  string   `json:"name" jsonschema_description:"Graph name"`
	Entry string   `json:"entry" jsonschema_description:"Entry node"`
	Nodes []string `json:"nodes" jsonschema_description:"Registered nodes in registration order"`
	Edges []Edge   `json:"edges" jsonschema_description:"Edge table of the graph"`
}

// DiagramOutcome carries a rendered Mermaid flowchart.
type DiagramOutcome struct {
	Graph   string `json:"graph" jsonschema_description:"Graph name"`
	Mermaid string `json:"mermaid" jsonschema_description:"Mermaid flowchart source"`
}

// Server exposes an engine and its graph catalog as an MCP server.
type Server struct {
	engine    *wattle.Engine
	graphs    map[string]*graph.Graph
	order     []string
	logger    *slog.Logger
	maxSteps  int
	mcpServer *server.MCPServer
}

// Option configures the server.
type Option func(*Server)

// WithLogger sets the structured logger. Defaults to the engine's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStepLimit caps the step count of runs started over MCP. A tool call
// may tighten the cap, never widen it. Zero leaves runs unbounded.
func WithStepLimit(n int) Option {
	return func(s *Server) {
		s.maxSteps = n
	}
}

// NewServer creates an MCP server executing the given graphs on engine.
func NewServer(engine *wattle.Engine, graphs []*graph.Graph, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		graphs:    make(map[string]*graph.Graph, len(graphs)),
		logger:    engine.Logger(),
		mcpServer: server.NewMCPServer("wattle-mcp", strings.TrimSpace(wattle.Version)),
	}
	for _, g := range graphs {
		if _, ok := s.graphs[g.Name()]; !ok {
			s.order = append(s.order, g.Name())
		}
		s.graphs[g.Name()] = g
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("mcp server listening", "transport", "sse", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: run_graph
	runTool := mcp.NewTool("run_graph",
		mcp.WithDescription("Run a graph to completion and return the outcome. The trace stays retrievable with get_trace when a recorder is configured."),
		mcp.WithString("graph", mcp.Required(), mcp.Description("Name of the graph to run")),
		mcp.WithString("initial", mcp.Description("JSON object seeding the shared state (optional)")),
		mcp.WithNumber("max_steps", mcp.Description("Step budget for this run (optional)")),
		mcp.WithOutputSchema[RunOutcome](),
	)
	s.mcpServer.AddTool(runTool, mcp.NewStructuredToolHandler(s.handleRunGraph))

	// TOOL: describe_graph
	describeTool := mcp.NewTool("describe_graph",
		mcp.WithDescription("Get the topology of one graph: nodes, edges and entry point."),
		mcp.WithString("graph", mcp.Required(), mcp.Description("Graph name")),
		mcp.WithOutputSchema[GraphTopology](),
	)
	s.mcpServer.AddTool(describeTool, mcp.NewStructuredToolHandler(s.handleDescribeGraph))

	// TOOL: get_diagram
	diagramTool := mcp.NewTool("get_diagram",
		mcp.WithDescription("Render a graph as a Mermaid flowchart, optionally overlaying a recorded run."),
		mcp.WithString("graph", mcp.Required(), mcp.Description("Graph name")),
		mcp.WithString("run_id", mcp.Description("Run id whose trace to overlay (optional)")),
		mcp.WithOutputSchema[DiagramOutcome](),
	)
	s.mcpServer.AddTool(diagramTool, mcp.NewStructuredToolHandler(s.handleDiagram))

	// TOOL: get_trace
	traceTool := mcp.NewTool("get_trace",
		mcp.WithDescription("Load the recorded trace of one run."),
		mcp.WithString("run_id", mcp.Required(), mcp.Description("Run id")),
		mcp.WithOutputSchema[graph.Trace](),
	)
	s.mcpServer.AddTool(traceTool, mcp.NewStructuredToolHandler(s.handleTrace))

	// TOOL: list_graphs
	s.mcpServer.AddTool(mcp.NewTool("list_graphs",
		mcp.WithDescription("List the graphs available for execution."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jsonBytes, _ := json.Marshal(s.catalog())
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})

	// TOOL: list_runs
	s.mcpServer.AddTool(mcp.NewTool("list_runs",
		mcp.WithDescription("List recorded run ids, newest first."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		rec := s.engine.Recorder()
		if rec == nil {
			return mcp.NewToolResultText("[]"), nil
		}
		ids, err := rec.List(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
		}
		if ids == nil {
			ids = []string{}
		}
		jsonBytes, _ := json.Marshal(ids)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

// Handler methods for structured tools

func (s *Server) handleRunGraph(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (RunOutcome, error) {
	name, _ := args["graph"].(string)
	g, ok := s.graphs[name]
	if !ok {
		return RunOutcome{}, fmt.Errorf("graph %q not found", name)
	}

	var initial graph.Update
	if initStr, ok := args["initial"].(string); ok && initStr != "" {
		if err := json.Unmarshal([]byte(initStr), &initial); err != nil {
			return RunOutcome{}, fmt.Errorf("invalid initial state: %w", err)
		}
	}

	limit := s.maxSteps
	if v, ok := args["max_steps"].(float64); ok && v > 0 {
		if requested := int(v); limit == 0 || requested < limit {
			limit = requested
		}
	}

	rn := runner.New(s.engine, runner.WithMaxSteps(limit), runner.WithLogger(s.logger))
	res, err := rn.Run(ctx, g, initial)
	if res == nil {
		return RunOutcome{}, fmt.Errorf("run failed to start: %w", err)
	}

	out := RunOutcome{RunID: res.RunID, Graph: name, Status: res.Status, Steps: res.Steps}
	if res.Final != nil {
		out.Final = res.Final.Map()
	}
	if err != nil {
		out.Error = err.Error()
	}
	return out, nil
}

func (s *Server) handleDescribeGraph(_ context.Context, request mcp.CallToolRequest, args map[string]any) (GraphTopology, error) {
	name, _ := args["graph"].(string)
	g, ok := s.graphs[name]
	if !ok {
		return GraphTopology{}, fmt.Errorf("graph %q not found", name)
	}

	topo := GraphTopology{Name: g.Name(), Entry: g.Entry(), Nodes: g.Nodes()}
	for _, node := range topo.Nodes {
		if target, ok := g.Edge(node); ok {
			topo.Edges = append(topo.Edges, Edge{From: node, To: target})
			continue
		}
		labels, targets, ok := g.Routes(node)
		if !ok {
			continue
		}
		for _, label := range labels {
			topo.Edges = append(topo.Edges, Edge{From: node, To: targets[label], Label: label})
		}
	}
	return topo, nil
}

func (s *Server) handleDiagram(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (DiagramOutcome, error) {
	name, _ := args["graph"].(string)
	g, ok := s.graphs[name]
	if !ok {
		return DiagramOutcome{}, fmt.Errorf("graph %q not found", name)
	}

	var overlay *mermaid.Overlay
	if runID, ok := args["run_id"].(string); ok && runID != "" {
		rec := s.engine.Recorder()
		if rec == nil {
			return DiagramOutcome{}, fmt.Errorf("trace %q not found: no recorder configured", runID)
		}
		tr, err := rec.Load(ctx, runID)
		if err != nil {
			return DiagramOutcome{}, fmt.Errorf("trace %q: %w", runID, err)
		}
		overlay = mermaid.FromTrace(tr)
	}

	return DiagramOutcome{Graph: name, Mermaid: mermaid.Generate(g, overlay)}, nil
}

func (s *Server) handleTrace(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (graph.Trace, error) {
	id, _ := args["run_id"].(string)
	rec := s.engine.Recorder()
	if rec == nil {
		return graph.Trace{}, fmt.Errorf("trace %q not found: no recorder configured", id)
	}
	tr, err := rec.Load(ctx, id)
	if err != nil {
		return graph.Trace{}, fmt.Errorf("trace %q: %w", id, err)
	}
	return *tr, nil
}

func (s *Server) catalog() []GraphSummary {
	out := make([]GraphSummary, 0, len(s.order))
	for _, name := range s.order {
		g := s.graphs[name]
		out = append(out, GraphSummary{Name: name, Entry: g.Entry(), Nodes: len(g.Nodes())})
	}
	return out
}

func (s *Server) registerResources() {
	// EXPOSE: wattle://graphs
	s.mcpServer.AddResource(mcp.NewResource("wattle://graphs", "Graph Catalog",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.catalog())
		if err != nil {
			return nil, fmt.Errorf("failed to encode catalog: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "wattle://graphs",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
