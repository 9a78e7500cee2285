package agent_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/wattle"
	"github.com/aretw0/wattle/pkg/agent"
	"github.com/aretw0/wattle/pkg/graph"
)

// scriptedDecider plays back a fixed sequence of moves.
type scriptedDecider struct {
	moves []agent.Decision
	calls int
}

type mockDecider struct {
	mock.Mock
}

func (m *mockDecider) Decide(ctx context.Context, s *graph.State) (agent.Decision, error) {
	args := m.Called(ctx, s)
	return args.Get(0).(agent.Decision), args.Error(1)
}

func (d *scriptedDecider) Decide(_ context.Context, _ *graph.State) (agent.Decision, error) {
	if d.calls >= len(d.moves) {
		return agent.Decision{}, errors.New("script exhausted")
	}
	move := d.moves[d.calls]
	d.calls++
	return move, nil
}

func searchToolbox(t *testing.T) *agent.Toolbox {
	t.Helper()
	tools := agent.NewToolbox()
	tools.Register("search", func(_ context.Context, input map[string]any) (any, error) {
		query, _ := input["query"].(string)
		return "results for " + query, nil
	})
	return tools
}

func TestAgentLoopRunsToFinish(t *testing.T) {
	ctx := context.Background()
	decider := &scriptedDecider{moves: []agent.Decision{
		{Action: &agent.Action{Tool: "search", Input: map[string]any{"query": "go"}}},
		{Finish: &agent.Finish{Result: "done"}},
	}}

	g, err := agent.New(agent.Config{Name: "researcher", Decider: decider, Tools: searchToolbox(t)})
	require.NoError(t, err)
	assert.Equal(t, "researcher", g.Name())
	assert.Equal(t, "decide", g.Entry())

	run, err := wattle.New().Start(ctx, g, graph.Update{agent.FieldTask: "answer with go"})
	require.NoError(t, err)

	var nodes []string
	for run.Next(ctx) {
		nodes = append(nodes, run.Event().Node)
	}
	require.NoError(t, run.Err())
	assert.Equal(t, []string{"decide", "act", "decide", graph.End}, nodes)
	assert.Equal(t, 2, decider.calls)

	final := run.State()
	result, _ := final.Get(agent.FieldResult)
	assert.Equal(t, "done", result)
	pad, _ := final.Get(agent.FieldScratchpad)
	assert.Equal(t, []any{
		"action: search",
		"observation[search]: results for go",
		"finish",
	}, pad)
}

func TestAgentForcedFirstAction(t *testing.T) {
	ctx := context.Background()
	decider := &scriptedDecider{moves: []agent.Decision{
		{Finish: &agent.Finish{Result: "greeted"}},
	}}
	tools := agent.NewToolbox()
	tools.Register("greet", func(_ context.Context, _ map[string]any) (any, error) {
		return "hello", nil
	})

	g, err := agent.New(agent.Config{
		Decider:     decider,
		Tools:       tools,
		FirstAction: &agent.Action{Tool: "greet"},
	})
	require.NoError(t, err)
	assert.Equal(t, "agent", g.Name())
	assert.Equal(t, "act", g.Entry())

	run, err := wattle.New().Start(ctx, g, nil)
	require.NoError(t, err)

	var nodes []string
	for run.Next(ctx) {
		nodes = append(nodes, run.Event().Node)
	}
	require.NoError(t, run.Err())

	// The opening event is the forced tool action, even though the decider
	// would have finished immediately had it spoken first.
	assert.Equal(t, []string{"act", "decide", graph.End}, nodes)
	assert.Equal(t, 1, decider.calls)

	pad, _ := run.State().Get(agent.FieldScratchpad)
	assert.Equal(t, []any{
		"forced: greet",
		"observation[greet]: hello",
		"finish",
	}, pad)
}

func TestAgentToolFailureFailsTheRun(t *testing.T) {
	ctx := context.Background()
	decider := &scriptedDecider{moves: []agent.Decision{
		{Action: &agent.Action{Tool: "search"}},
	}}

	g, err := agent.New(agent.Config{Decider: decider})
	require.NoError(t, err)

	_, err = wattle.New().Invoke(ctx, g, nil)
	require.Error(t, err)

	var nodeErr *graph.NodeExecutionError
	require.ErrorAs(t, err, &nodeErr)
	assert.Equal(t, "act", nodeErr.Node)
	assert.Contains(t, err.Error(), "tool not found: search")
}

func TestAgentRejectsAmbiguousDecision(t *testing.T) {
	ctx := context.Background()
	decider := &scriptedDecider{moves: []agent.Decision{{}}}

	g, err := agent.New(agent.Config{Decider: decider, Tools: searchToolbox(t)})
	require.NoError(t, err)

	_, err = wattle.New().Invoke(ctx, g, nil)
	require.Error(t, err)

	var nodeErr *graph.NodeExecutionError
	require.ErrorAs(t, err, &nodeErr)
	assert.Equal(t, "decide", nodeErr.Node)
	assert.Contains(t, err.Error(), "exactly one of action or finish")
}

func TestAgentDeciderErrorFailsTheRun(t *testing.T) {
	ctx := context.Background()
	decider := new(mockDecider)
	decider.On("Decide", mock.Anything, mock.Anything).
		Return(agent.Decision{}, errors.New("model unavailable")).Once()

	g, err := agent.New(agent.Config{Decider: decider, Tools: searchToolbox(t)})
	require.NoError(t, err)

	_, err = wattle.New().Invoke(ctx, g, nil)
	require.Error(t, err)

	var nodeErr *graph.NodeExecutionError
	require.ErrorAs(t, err, &nodeErr)
	assert.Equal(t, "decide", nodeErr.Node)
	assert.Contains(t, err.Error(), "model unavailable")
	decider.AssertExpectations(t)
}

func TestAgentRequiresDecider(t *testing.T) {
	_, err := agent.New(agent.Config{})

	var cfgErr *graph.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, err.Error(), "no decider")
}
