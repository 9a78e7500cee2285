package ports

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/wattle/pkg/graph"
)

// RunRecorderContract runs a suite of tests verifying that a RunRecorder
// implementation adheres to the interface contract. Adapter packages call it
// from their own tests against a live instance of their backend.
func RunRecorderContract(t *testing.T, rec RunRecorder) {
	ctx := context.Background()
	prefix := "contract-" + time.Now().Format("20060102150405")

	sample := func(id string, startedAt time.Time) *graph.Trace {
		return &graph.Trace{
			ID:        id,
			Graph:     "contract-graph",
			Status:    graph.StatusFinished,
			StartedAt: startedAt,
			EndedAt:   startedAt.Add(50 * time.Millisecond),
			Steps: []graph.TraceStep{
				{Seq: 1, Node: "decide", Update: map[string]any{"count": 1}, At: startedAt},
				{Seq: 2, Node: graph.End, At: startedAt.Add(time.Millisecond)},
			},
			Final: map[string]any{"count": 1, "log": []any{"acted"}},
		}
	}

	t.Run("save and load", func(t *testing.T) {
		id := prefix + "-roundtrip"
		started := time.Now().UTC().Truncate(time.Millisecond)

		require.NoError(t, rec.Save(ctx, sample(id, started)))
		defer func() { _ = rec.Delete(ctx, id) }()

		loaded, err := rec.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, id, loaded.ID)
		assert.Equal(t, "contract-graph", loaded.Graph)
		assert.Equal(t, graph.StatusFinished, loaded.Status)
		require.Len(t, loaded.Steps, 2)
		assert.Equal(t, "decide", loaded.Steps[0].Node)
		assert.Equal(t, graph.End, loaded.Steps[1].Node)
		assert.Len(t, loaded.Final, 2)
	})

	t.Run("load isolates callers", func(t *testing.T) {
		id := prefix + "-isolation"
		require.NoError(t, rec.Save(ctx, sample(id, time.Now().UTC())))
		defer func() { _ = rec.Delete(ctx, id) }()

		first, err := rec.Load(ctx, id)
		require.NoError(t, err)
		first.Steps[0].Node = "tampered"
		first.Final["count"] = 99

		second, err := rec.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "decide", second.Steps[0].Node)
	})

	t.Run("load non-existent", func(t *testing.T) {
		_, err := rec.Load(ctx, prefix+"-missing")
		assert.ErrorIs(t, err, graph.ErrTraceNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		id := prefix + "-delete"
		require.NoError(t, rec.Save(ctx, sample(id, time.Now().UTC())))

		require.NoError(t, rec.Delete(ctx, id))

		_, err := rec.Load(ctx, id)
		assert.ErrorIs(t, err, graph.ErrTraceNotFound, "load after delete should report an absent trace")

		assert.NoError(t, rec.Delete(ctx, id), "deleting an absent trace is not an error")
	})

	t.Run("list newest first", func(t *testing.T) {
		base := time.Now().UTC()
		var ids []string
		for i := 0; i < 3; i++ {
			id := fmt.Sprintf("%s-list-%d", prefix, i)
			ids = append(ids, id)
			require.NoError(t, rec.Save(ctx, sample(id, base.Add(time.Duration(i)*time.Second))))
		}
		defer func() {
			for _, id := range ids {
				_ = rec.Delete(ctx, id)
			}
		}()

		listed, err := rec.List(ctx)
		require.NoError(t, err)

		pos := make(map[string]int, len(listed))
		for i, id := range listed {
			pos[id] = i
		}
		for _, id := range ids {
			assert.Contains(t, listed, id)
		}
		// ids[2] started last, so it must come before ids[0].
		assert.Less(t, pos[ids[2]], pos[ids[0]])
	})
}
