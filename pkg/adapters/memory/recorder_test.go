package memory_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/wattle/pkg/adapters/memory"
	"github.com/aretw0/wattle/pkg/graph"
	"github.com/aretw0/wattle/pkg/ports"
)

func TestRecorderContract(t *testing.T) {
	ports.RunRecorderContract(t, memory.NewRecorder())
}

func TestRecorderConcurrentAccess(t *testing.T) {
	rec := memory.NewRecorder()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("run-%d", n)
			tr := &graph.Trace{
				ID:        id,
				Graph:     "concurrent",
				Status:    graph.StatusFinished,
				StartedAt: time.Now().Add(time.Duration(n) * time.Millisecond),
			}
			assert.NoError(t, rec.Save(ctx, tr))
			loaded, err := rec.Load(ctx, id)
			assert.NoError(t, err)
			assert.Equal(t, id, loaded.ID)
			_, err = rec.List(ctx)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	ids, err := rec.List(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 8)
}
