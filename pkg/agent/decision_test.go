package agent_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/wattle/pkg/agent"
)

func TestToolboxExecute(t *testing.T) {
	ctx := context.Background()
	tools := agent.NewToolbox()
	tools.Register("echo", func(_ context.Context, input map[string]any) (any, error) {
		return input["msg"], nil
	})
	tools.Register("add", func(_ context.Context, input map[string]any) (any, error) {
		a, _ := input["a"].(int)
		b, _ := input["b"].(int)
		return a + b, nil
	})

	assert.Equal(t, []string{"echo", "add"}, tools.Names())

	out, err := tools.Execute(ctx, "echo", map[string]any{"msg": "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hi", out)

	out, err = tools.Execute(ctx, "add", map[string]any{"a": 2, "b": 3})
	require.NoError(t, err)
	assert.Equal(t, 5, out)

	_, err = tools.Execute(ctx, "missing", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tool not found: missing")
}

func TestToolboxRegisterOverwrites(t *testing.T) {
	ctx := context.Background()
	tools := agent.NewToolbox()
	tools.Register("echo", func(_ context.Context, _ map[string]any) (any, error) {
		return "first", nil
	})
	tools.Register("echo", func(_ context.Context, _ map[string]any) (any, error) {
		return "second", nil
	})

	assert.Equal(t, []string{"echo"}, tools.Names())
	out, err := tools.Execute(ctx, "echo", nil)
	require.NoError(t, err)
	assert.Equal(t, "second", out)
}

func TestDecodeInput(t *testing.T) {
	type searchInput struct {
		Query string `mapstructure:"query"`
		Limit int    `mapstructure:"limit"`
	}

	in, err := agent.DecodeInput[searchInput](map[string]any{"query": "go graphs", "limit": 3})
	require.NoError(t, err)
	assert.Equal(t, "go graphs", in.Query)
	assert.Equal(t, 3, in.Limit)

	_, err = agent.DecodeInput[searchInput](map[string]any{"limit": "three"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode tool input")
}
