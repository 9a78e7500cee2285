package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/wattle"
	"github.com/aretw0/wattle/pkg/adapters/memory"
	"github.com/aretw0/wattle/pkg/graph"
)

func counterGraph(t *testing.T) *graph.Graph {
	t.Helper()
	schema, err := graph.NewSchema(graph.Overwrite("count"), graph.Accumulate("log"))
	if err != nil {
		t.Fatalf("NewSchema() error = %v", err)
	}
	g, err := graph.New("counter", schema).
		AddNode("decide", func(_ context.Context, s *graph.State) (graph.Update, error) {
			v, _ := s.Get("count")
			c, _ := v.(int)
			return graph.Update{"count": c + 1}, nil
		}).
		AddNode("act", func(_ context.Context, _ *graph.State) (graph.Update, error) {
			return graph.Update{"log": "acted"}, nil
		}).
		AddConditionalEdges("decide", func(_ context.Context, s *graph.State) string {
			v, _ := s.Get("count")
			if c, _ := v.(int); c >= 2 {
				return "end"
			}
			return "continue"
		}, map[string]string{
			"continue": "act",
			"end":      graph.End,
		}).
		AddEdge("act", "decide").
		SetEntryPoint("decide").
		Compile()
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	return g
}

func spinnerGraph(t *testing.T) *graph.Graph {
	t.Helper()
	schema, err := graph.NewSchema(graph.Overwrite("ticks"))
	if err != nil {
		t.Fatalf("NewSchema() error = %v", err)
	}
	g, err := graph.New("spinner", schema).
		AddNode("spin", func(_ context.Context, s *graph.State) (graph.Update, error) {
			v, _ := s.Get("ticks")
			n, _ := v.(int)
			return graph.Update{"ticks": n + 1}, nil
		}).
		AddEdge("spin", "spin").
		SetEntryPoint("spin").
		Compile()
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	return g
}

func faultyGraph(t *testing.T) *graph.Graph {
	t.Helper()
	schema, err := graph.NewSchema(graph.Accumulate("log"))
	if err != nil {
		t.Fatalf("NewSchema() error = %v", err)
	}
	g, err := graph.New("faulty", schema).
		AddNode("ok", func(_ context.Context, _ *graph.State) (graph.Update, error) {
			return graph.Update{"log": "ok"}, nil
		}).
		AddNode("explode", func(_ context.Context, _ *graph.State) (graph.Update, error) {
			return nil, errors.New("boom")
		}).
		AddEdge("ok", "explode").
		AddEdge("explode", graph.End).
		SetEntryPoint("ok").
		Compile()
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	return g
}

func newTestHandler(t *testing.T, opts ...Option) http.Handler {
	t.Helper()
	engine := wattle.New(wattle.WithRecorder(memory.NewRecorder()))
	return NewHandler(engine, []*graph.Graph{counterGraph(t), spinnerGraph(t), faultyGraph(t)}, opts...)
}

func get(handler http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
	return w
}

// runResult mirrors the run response with the final state as a plain map.
type runResult struct {
	RunID  string          `json:"run_id"`
	Graph  string          `json:"graph"`
	Status graph.RunStatus `json:"status"`
	Steps  int             `json:"steps"`
	Final  map[string]any  `json:"final"`
	Error  string          `json:"error"`
}

func postRun(t *testing.T, handler http.Handler, path, body string) runResult {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("POST", path, rd))
	if w.Code != http.StatusOK {
		t.Fatalf("POST %s = %d, body: %s", path, w.Code, w.Body.String())
	}
	var res runResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode run response: %v", err)
	}
	return res
}

func TestGetHealth(t *testing.T) {
	w := get(newTestHandler(t), "/health")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s, want status ok", w.Body.String())
	}
}

func TestGetInfo(t *testing.T) {
	w := get(newTestHandler(t), "/info")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `"app":"wattle-http"`) {
		t.Errorf("body = %s, want app name", body)
	}
	if !strings.Contains(body, `"version":"0.1.0"`) {
		t.Errorf("body = %s, want trimmed version", body)
	}
}

func TestListGraphs(t *testing.T) {
	w := get(newTestHandler(t), "/graphs")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{`"name":"counter"`, `"name":"spinner"`, `"entry":"decide"`} {
		if !strings.Contains(body, want) {
			t.Errorf("body = %s, want substring %s", body, want)
		}
	}
}

func TestGetGraphDetail(t *testing.T) {
	handler := newTestHandler(t)

	w := get(handler, "/graphs/counter")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var detail GraphDetail
	if err := json.Unmarshal(w.Body.Bytes(), &detail); err != nil {
		t.Fatalf("decode detail: %v", err)
	}
	if detail.Entry != "decide" {
		t.Errorf("entry = %q, want decide", detail.Entry)
	}
	if len(detail.Nodes) != 2 {
		t.Errorf("nodes = %v, want 2 entries", detail.Nodes)
	}
	want := map[EdgeView]bool{
		{From: "act", To: "decide"}:                    false,
		{From: "decide", To: "act", Label: "continue"}: false,
		{From: "decide", To: graph.End, Label: "end"}:  false,
	}
	for _, e := range detail.Edges {
		if _, ok := want[e]; ok {
			want[e] = true
		}
	}
	for e, seen := range want {
		if !seen {
			t.Errorf("edge %+v missing from %+v", e, detail.Edges)
		}
	}

	if w := get(handler, "/graphs/ghost"); w.Code != http.StatusNotFound {
		t.Errorf("unknown graph status = %d, want 404", w.Code)
	}
}

func TestGetDiagram(t *testing.T) {
	handler := newTestHandler(t)

	w := get(handler, "/graphs/counter/diagram")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{"graph TD", `decide(("decide"))`, `decide -- "end" --> __end__`} {
		if !strings.Contains(body, want) {
			t.Errorf("diagram = \n%s\nwant substring %s", body, want)
		}
	}
}

func TestGetDiagramWithRunOverlay(t *testing.T) {
	handler := newTestHandler(t)
	res := postRun(t, handler, "/graphs/counter/runs", `{"initial":{"count":0}}`)

	w := get(handler, "/graphs/counter/diagram?run_id="+res.RunID)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{"classDef visited", "class decide visited;", "class __end__ current;"} {
		if !strings.Contains(body, want) {
			t.Errorf("diagram = \n%s\nwant substring %s", body, want)
		}
	}

	if w := get(handler, "/graphs/counter/diagram?run_id=ghost"); w.Code != http.StatusNotFound {
		t.Errorf("unknown run status = %d, want 404", w.Code)
	}
}

func TestCreateRun(t *testing.T) {
	res := postRun(t, newTestHandler(t), "/graphs/counter/runs", `{"initial":{"count":0}}`)

	if res.Status != graph.StatusFinished {
		t.Errorf("status = %q, want finished", res.Status)
	}
	if res.Steps != 4 {
		t.Errorf("steps = %d, want 4", res.Steps)
	}
	if res.Error != "" {
		t.Errorf("error = %q, want none", res.Error)
	}
	if res.RunID == "" {
		t.Error("run_id is empty")
	}
	if got := res.Final["count"]; got != float64(2) {
		t.Errorf("final count = %v, want 2", got)
	}
}

func TestCreateRunValidation(t *testing.T) {
	handler := newTestHandler(t)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("POST", "/graphs/ghost/runs", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown graph status = %d, want 404", w.Code)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("POST", "/graphs/counter/runs", strings.NewReader("{not json")))
	if w.Code != http.StatusBadRequest {
		t.Errorf("malformed body status = %d, want 400", w.Code)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("POST", "/graphs/counter/runs", strings.NewReader(`{"initial":{"ghost":1}}`)))
	if w.Code != http.StatusBadRequest {
		t.Errorf("undeclared field status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "undeclared field") {
		t.Errorf("body = %s, want undeclared field detail", w.Body.String())
	}
}

func TestCreateRunReportsFailure(t *testing.T) {
	res := postRun(t, newTestHandler(t), "/graphs/faulty/runs", "")

	if res.Status != graph.StatusFailed {
		t.Errorf("status = %q, want failed", res.Status)
	}
	if res.Steps != 1 {
		t.Errorf("steps = %d, want 1", res.Steps)
	}
	if !strings.Contains(res.Error, `node "explode" failed`) || !strings.Contains(res.Error, "boom") {
		t.Errorf("error = %q, want node failure detail", res.Error)
	}
}

func TestCreateRunStepLimit(t *testing.T) {
	handler := newTestHandler(t, WithStepLimit(5))

	res := postRun(t, handler, "/graphs/spinner/runs", `{"max_steps":3}`)
	if res.Status != graph.StatusCancelled {
		t.Errorf("status = %q, want cancelled", res.Status)
	}
	if res.Steps != 3 {
		t.Errorf("steps = %d, want request cap of 3", res.Steps)
	}
	if !strings.Contains(res.Error, "step limit exceeded") {
		t.Errorf("error = %q, want step limit detail", res.Error)
	}

	// The request may tighten the server cap, never widen it.
	res = postRun(t, handler, "/graphs/spinner/runs", `{"max_steps":50}`)
	if res.Steps != 5 {
		t.Errorf("steps = %d, want server cap of 5", res.Steps)
	}
}

func TestCreateRunStream(t *testing.T) {
	handler := newTestHandler(t)

	req := httptest.NewRequest("POST", "/graphs/counter/runs", strings.NewReader(`{"initial":{"count":0}}`))
	req.Header.Set("Accept", "text/event-stream")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q, want text/event-stream", ct)
	}

	body := w.Body.String()
	if !strings.Contains(body, "event: start") || !strings.Contains(body, `"graph":"counter"`) {
		t.Errorf("body = \n%s\nwant start frame", body)
	}
	if got := strings.Count(body, "event: step"); got != 4 {
		t.Errorf("step frames = %d, want 4", got)
	}
	if !strings.Contains(body, `"node":"__end__"`) {
		t.Errorf("body = \n%s\nwant terminal step frame", body)
	}
	if !strings.Contains(body, "event: end") || !strings.Contains(body, `"status":"finished"`) {
		t.Errorf("body = \n%s\nwant end frame", body)
	}
}

func TestRunEndpoints(t *testing.T) {
	handler := newTestHandler(t)
	res := postRun(t, handler, "/graphs/counter/runs", `{"initial":{"count":0}}`)

	w := get(handler, "/runs")
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), res.RunID) {
		t.Errorf("list = %s, want run %s", w.Body.String(), res.RunID)
	}

	w = get(handler, "/runs/"+res.RunID)
	if w.Code != http.StatusOK {
		t.Fatalf("load status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `"graph":"counter"`) || !strings.Contains(body, `"status":"finished"`) {
		t.Errorf("trace = %s, want graph and status", body)
	}

	if w := get(handler, "/runs/ghost"); w.Code != http.StatusNotFound {
		t.Errorf("unknown trace status = %d, want 404", w.Code)
	}
}

func TestRunEndpointsWithoutRecorder(t *testing.T) {
	engine := wattle.New()
	handler := NewHandler(engine, []*graph.Graph{counterGraph(t)})

	w := get(handler, "/runs")
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d, want 200", w.Code)
	}
	if got := strings.TrimSpace(w.Body.String()); got != "[]" {
		t.Errorf("list = %q, want empty array", got)
	}

	if w := get(handler, "/runs/anything"); w.Code != http.StatusNotFound {
		t.Errorf("load status = %d, want 404", w.Code)
	}
}
