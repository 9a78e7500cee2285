package cli

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/wattle/internal/logging"
)

func TestBuildEngineDefaultsToMemory(t *testing.T) {
	eng, err := BuildEngine(context.Background(), logging.NewNop(), "", "")
	require.NoError(t, err)
	assert.NotNil(t, eng.Recorder())
}

func TestBuildEngineWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	eng, err := BuildEngine(context.Background(), logging.NewNop(), mr.Addr(), "")
	require.NoError(t, err)
	assert.NotNil(t, eng.Recorder())
}

func TestBuildEngineWithTraceDir(t *testing.T) {
	g, err := Lookup("counter")
	require.NoError(t, err)

	dir := t.TempDir()
	eng, err := BuildEngine(context.Background(), logging.NewNop(), "", dir)
	require.NoError(t, err)

	_, err = eng.Invoke(context.Background(), g, nil)
	require.NoError(t, err)

	ids, err := eng.Recorder().List(context.Background())
	require.NoError(t, err)
	assert.Len(t, ids, 1, "the finished run's trace lands in the directory")
}

func TestBuildEngineUnreachableRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := BuildEngine(context.Background(), logging.NewNop(), addr, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error connecting to redis")
}
