package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/wattle"
	"github.com/aretw0/wattle/pkg/graph"
)

func TestDemosCompile(t *testing.T) {
	graphs, err := Demos()
	require.NoError(t, err)

	names := make([]string, len(graphs))
	for i, g := range graphs {
		names[i] = g.Name()
	}
	assert.Equal(t, []string{"counter", "echo-agent", "pipeline"}, names)
}

func TestLookupUnknown(t *testing.T) {
	_, err := Lookup("ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown graph "ghost"`)
	assert.Contains(t, err.Error(), "counter")
}

func TestCounterDemoRuns(t *testing.T) {
	g, err := Lookup("counter")
	require.NoError(t, err)

	final, err := wattle.New().Invoke(context.Background(), g, nil)
	require.NoError(t, err)

	count, _ := final.Get("count")
	assert.Equal(t, 3, count)
	log, _ := final.Get("log")
	assert.Len(t, log, 3)
}

func TestEchoAgentDemoRuns(t *testing.T) {
	g, err := Lookup("echo-agent")
	require.NoError(t, err)

	final, err := wattle.New().Invoke(context.Background(), g, graph.Update{"task": "ping"})
	require.NoError(t, err)

	result, _ := final.Get("result")
	assert.Equal(t, "ping", result)
}

func TestPipelineDemoRuns(t *testing.T) {
	g, err := Lookup("pipeline")
	require.NoError(t, err)

	final, err := wattle.New().Invoke(context.Background(), g, nil)
	require.NoError(t, err)

	payload, _ := final.Get("payload")
	assert.Equal(t, "HELLO WATTLE", payload)
}
