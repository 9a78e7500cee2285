package cli

import (
	"context"
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	"github.com/aretw0/wattle"
	fileadapter "github.com/aretw0/wattle/internal/adapters/file"
	redisadapter "github.com/aretw0/wattle/internal/adapters/redis"
	"github.com/aretw0/wattle/pkg/adapters/memory"
	"github.com/aretw0/wattle/pkg/graph"
	"github.com/aretw0/wattle/pkg/observability"
)

// BuildEngine assembles an engine with standard CLI conventions: the given
// logger, run recording, and any lifecycle hooks. Traces go to Redis when an
// address is set, to trace files when a directory is set, and to process
// memory otherwise.
func BuildEngine(ctx context.Context, logger *slog.Logger, redisAddr, traceDir string, hooks ...graph.LifecycleHooks) (*wattle.Engine, error) {
	opts := []wattle.Option{wattle.WithLogger(logger)}

	switch {
	case redisAddr != "":
		client := goredis.NewClient(&goredis.Options{Addr: redisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("error connecting to redis at %s: %w", redisAddr, err)
		}
		opts = append(opts, wattle.WithRecorder(redisadapter.NewFromClient(client)))
	case traceDir != "":
		opts = append(opts, wattle.WithRecorder(fileadapter.New(traceDir)))
	default:
		opts = append(opts, wattle.WithRecorder(memory.NewRecorder()))
	}

	switch len(hooks) {
	case 0:
	case 1:
		opts = append(opts, wattle.WithLifecycleHooks(hooks[0]))
	default:
		opts = append(opts, wattle.WithLifecycleHooks(observability.Join(hooks...)))
	}

	return wattle.New(opts...), nil
}
