/*
Package http exposes compiled graphs and recorded runs over a REST surface.

The handler serves a catalog API (list graphs, inspect topology, render a
Mermaid diagram) and run execution: POST a run and receive the outcome as
JSON, or, when the client accepts text/event-stream, a Server-Sent Events
feed of step events pulled live from the run cursor. Recorded traces are
served from the engine's RunRecorder when one is configured.
*/
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/wattle"
	"github.com/aretw0/wattle/internal/presentation/mermaid"
	"github.com/aretw0/wattle/pkg/graph"
	"github.com/aretw0/wattle/pkg/runner"
	"github.com/go-chi/chi/v5"
)

// Server handles the REST and SSE surface for one engine and its graph
// catalog.
type Server struct {
	engine   *wattle.Engine
	graphs   map[string]*graph.Graph
	order    []string
	logger   *slog.Logger
	maxSteps int
	timeout  time.Duration
}

// Option configures the handler.
type Option func(*Server)

// WithLogger sets the structured logger. Defaults to the engine's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStepLimit caps the step count of every run started over HTTP. A
// request may tighten the cap, never widen it. Zero leaves runs unbounded.
func WithStepLimit(n int) Option {
	return func(s *Server) {
		s.maxSteps = n
	}
}

// WithRunTimeout bounds the wall-clock duration of every run started over
// HTTP. Zero disables it.
func WithRunTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.timeout = d
	}
}

// NewHandler creates the HTTP handler serving the given graphs on engine.
// Graph names identify graphs in the API; registering two graphs with the
// same name keeps the later one.
func NewHandler(engine *wattle.Engine, graphs []*graph.Graph, opts ...Option) http.Handler {
	s := &Server{
		engine: engine,
		graphs: make(map[string]*graph.Graph, len(graphs)),
		logger: engine.Logger(),
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

	r := chi.NewRouter()
	r.Get("/health", s.getHealth)
	r.Get("/info", s.getInfo)
	r.Get("/graphs", s.listGraphs)
	r.Get("/graphs/{name}", s.getGraph)
	r.Get("/graphs/{name}/diagram", s.getDiagram)
	r.Post("/graphs/{name}/runs", s.createRun)
	r.Get("/runs", s.listRuns)
	r.Get("/runs/{id}", s.getRun)

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GraphSummary is one catalog entry.
type GraphSummary struct {
	Name  string `json:"name"`
	Entry string `json:"entry"`
	Nodes int    `json:"nodes"`
}

// EdgeView is one edge of a graph detail view. Label is set on conditional
// edges only.
type EdgeView struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label,omitempty"`
}

// GraphDetail is the full topology of one graph.
type GraphDetail struct {
	Name  string     `json:"name"`
	Entry string     `json:"entry"`
	Nodes []string   `json:"nodes"`
	Edges []EdgeView `json:"edges"`
}

// RunRequest is the body of POST /graphs/{name}/runs. Initial seeds the
// shared state; MaxSteps optionally tightens the server's step cap.
type RunRequest struct {
	Initial  map[string]any `json:"initial,omitempty"`
	MaxSteps int            `json:"max_steps,omitempty"`
}

// RunResponse reports the outcome of one run. Error is set when the run
// failed or was cancelled. With a recorder configured the full trace stays
// retrievable under /runs/{run_id}.
type RunResponse struct {
	RunID  string          `json:"run_id"`
	Graph  string          `json:"graph"`
	Status graph.RunStatus `json:"status"`
	Steps  int             `json:"steps"`
	Final  *graph.State    `json:"final,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// getHealth handles the GET /health request.
func (s *Server) getHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

// getInfo handles the GET /info request.
func (s *Server) getInfo(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, map[string]string{
		"app":     "wattle-http",
		"version": strings.TrimSpace(wattle.Version),
	})
}

// listGraphs handles the GET /graphs request.
func (s *Server) listGraphs(w http.ResponseWriter, _ *http.Request) {
	out := make([]GraphSummary, 0, len(s.order))
	for _, name := range s.order {
		g := s.graphs[name]
		out = append(out, GraphSummary{Name: name, Entry: g.Entry(), Nodes: len(g.Nodes())})
	}
	s.writeJSON(w, out)
}

// getGraph handles the GET /graphs/{name} request.
func (s *Server) getGraph(w http.ResponseWriter, r *http.Request) {
	g, ok := s.lookup(w, r)
	if !ok {
		return
	}

	detail := GraphDetail{Name: g.Name(), Entry: g.Entry(), Nodes: g.Nodes()}
	for _, node := range detail.Nodes {
		if target, ok := g.Edge(node); ok {
			detail.Edges = append(detail.Edges, EdgeView{From: node, To: target})
			continue
		}
		labels, targets, ok := g.Routes(node)
		if !ok {
			continue
		}
		for _, label := range labels {
			detail.Edges = append(detail.Edges, EdgeView{From: node, To: targets[label], Label: label})
		}
	}
	s.writeJSON(w, detail)
}

// getDiagram handles the GET /graphs/{name}/diagram request. With a run_id
// query parameter the recorded trace is overlaid on the topology.
func (s *Server) getDiagram(w http.ResponseWriter, r *http.Request) {
	g, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var overlay *mermaid.Overlay
	if runID := r.URL.Query().Get("run_id"); runID != "" {
		tr, ok := s.loadTrace(w, r, runID)
		if !ok {
			return
		}
		overlay = mermaid.FromTrace(tr)
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, mermaid.Generate(g, overlay))
}

// createRun handles the POST /graphs/{name}/runs request. The default is to
// run to completion and respond with JSON; clients accepting
// text/event-stream get the step events live instead.
func (s *Server) createRun(w http.ResponseWriter, r *http.Request) {
	g, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var body RunRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("createRun: invalid request body", "error", err)
		return
	}

	initial := graph.Update(body.Initial)
	limit := s.stepLimit(body.MaxSteps)

	if wantsStream(r) {
		s.streamRun(w, r, g, initial, limit)
		return
	}

	rn := runner.New(s.engine,
		runner.WithMaxSteps(limit),
		runner.WithTimeout(s.timeout),
		runner.WithLogger(s.logger),
	)
	res, err := rn.Run(r.Context(), g, initial)
	if res == nil {
		s.writeStartError(w, g, err)
		return
	}

	resp := RunResponse{
		RunID:  res.RunID,
		Graph:  g.Name(),
		Status: res.Status,
		Steps:  res.Steps,
		Final:  res.Final,
	}
	if err != nil {
		resp.Error = err.Error()
	}
	s.writeJSON(w, resp)
}

// streamRun pulls the run cursor and forwards each step event to the client
// as it is produced: one start frame, one step frame per yielded event and a
// final end frame carrying the outcome.
func (s *Server) streamRun(w http.ResponseWriter, r *http.Request, g *graph.Graph, initial graph.Update, limit int) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("streamRun: streaming not supported")
		return
	}

	ctx := r.Context()
	if s.timeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, s.timeout)
		defer cancelTimeout()
	}
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	run, err := s.engine.Start(runCtx, g, initial)
	if err != nil {
		s.writeStartError(w, g, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	s.writeEvent(w, "start", map[string]string{"run_id": run.ID(), "graph": g.Name()})
	flusher.Flush()

	for run.Next(runCtx) {
		s.writeEvent(w, "step", run.Event())
		flusher.Flush()

		if limit > 0 && run.Steps() >= limit && !run.Event().Terminal() {
			s.logger.Warn("step budget exhausted", "run_id", run.ID(), "steps", run.Steps())
			cancel()
			// One more pull so the run observes the cancellation and
			// finalizes its trace.
			run.Next(runCtx)
			break
		}
	}

	resp := RunResponse{
		RunID:  run.ID(),
		Graph:  g.Name(),
		Status: run.Status(),
		Steps:  run.Steps(),
		Final:  run.State(),
	}
	if err := run.Err(); err != nil {
		resp.Error = err.Error()
	}
	s.writeEvent(w, "end", resp)
	flusher.Flush()
}

// listRuns handles the GET /runs request.
func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	ids := []string{}
	if rec := s.engine.Recorder(); rec != nil {
		listed, err := rec.List(r.Context())
		if err != nil {
			http.Error(w, fmt.Sprintf("trace list error: %v", err), http.StatusInternalServerError)
			s.logger.Error("trace list failed", "error", err)
			return
		}
		ids = append(ids, listed...)
	}
	s.writeJSON(w, ids)
}

// getRun handles the GET /runs/{id} request.
func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	tr, ok := s.loadTrace(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	s.writeJSON(w, tr)
}

// -- Helpers --

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*graph.Graph, bool) {
	name := chi.URLParam(r, "name")
	g, ok := s.graphs[name]
	if !ok {
		http.Error(w, fmt.Sprintf("graph %q not found", name), http.StatusNotFound)
		return nil, false
	}
	return g, true
}

// loadTrace resolves a trace by run id, mapping a missing recorder and an
// unknown id to 404.
func (s *Server) loadTrace(w http.ResponseWriter, r *http.Request, id string) (*graph.Trace, bool) {
	rec := s.engine.Recorder()
	if rec == nil {
		http.Error(w, fmt.Sprintf("trace %q not found", id), http.StatusNotFound)
		return nil, false
	}
	tr, err := rec.Load(r.Context(), id)
	if err != nil {
		if errors.Is(err, graph.ErrTraceNotFound) {
			http.Error(w, fmt.Sprintf("trace %q not found", id), http.StatusNotFound)
			return nil, false
		}
		http.Error(w, fmt.Sprintf("trace load error: %v", err), http.StatusInternalServerError)
		s.logger.Error("trace load failed", "run_id", id, "error", err)
		return nil, false
	}
	return tr, true
}

// stepLimit resolves the effective step budget for one request.
func (s *Server) stepLimit(requested int) int {
	if requested > 0 && (s.maxSteps == 0 || requested < s.maxSteps) {
		return requested
	}
	return s.maxSteps
}

// writeStartError maps a failure to start a run onto an HTTP status: a
// configuration problem is the client's fault, anything else is ours.
func (s *Server) writeStartError(w http.ResponseWriter, g *graph.Graph, err error) {
	var cfgErr *graph.ConfigurationError
	if errors.As(err, &cfgErr) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	http.Error(w, fmt.Sprintf("run error: %v", err), http.StatusInternalServerError)
	s.logger.Error("run start failed", "graph", g.Name(), "error", err)
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}

// writeEvent emits one SSE frame.
func (s *Server) writeEvent(w io.Writer, event string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("event encode failed", "event", event, "error", err)
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
}

func wantsStream(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/event-stream")
}
