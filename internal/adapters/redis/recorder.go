// Package redis persists run traces to Redis, with optional expiry.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/wattle/pkg/graph"
)

// Recorder implements ports.RunRecorder using Redis. Traces are stored as
// JSON values; a ZSET index scored by start time keeps listing in
// newest-first order without scanning keys.
type Recorder struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Recorder)

// WithTTL sets the expiration for traces. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(r *Recorder) {
		r.ttl = ttl
	}
}

// WithPrefix sets the key prefix for traces.
func WithPrefix(prefix string) Option {
	return func(r *Recorder) {
		r.prefix = prefix
	}
}

// New creates a new Redis recorder with options.
func New(address, password string, db int, opts ...Option) *Recorder {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis recorder from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Recorder {
	rec := &Recorder{
		client: client,
		prefix: "wattle:trace:",
		ttl:    0, // No expiration by default
	}

	for _, opt := range opts {
		opt(rec)
	}

	return rec
}

func (r *Recorder) key(id string) string {
	return r.prefix + id
}

func (r *Recorder) indexKey() string {
	return r.prefix + "index"
}

func score(at time.Time) float64 {
	return float64(at.UnixMilli()) / 1000.0
}

// Save persists the trace to Redis.
func (r *Recorder) Save(ctx context.Context, trace *graph.Trace) error {
	data, err := json.Marshal(trace)
	if err != nil {
		return fmt.Errorf("failed to marshal trace: %w", err)
	}

	pipe := r.client.Pipeline()

	// 1. Save JSON with TTL (0 = no expiration).
	pipe.Set(ctx, r.key(trace.ID), data, r.ttl)

	// 2. Add to index (ZSET), scored by start time so ZRevRange lists
	// newest first and pruning can drop entries older than the TTL.
	pipe.ZAdd(ctx, r.indexKey(), backend.Z{
		Score:  score(trace.StartedAt),
		Member: trace.ID,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}

	return nil
}

// Load retrieves the trace from Redis.
func (r *Recorder) Load(ctx context.Context, id string) (*graph.Trace, error) {
	val, err := r.client.Get(ctx, r.key(id)).Result()
	if err != nil {
		if err == backend.Nil {
			return nil, graph.ErrTraceNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var trace graph.Trace
	if err := json.Unmarshal([]byte(val), &trace); err != nil {
		return nil, fmt.Errorf("failed to unmarshal trace: %w", err)
	}

	return &trace, nil
}

// Delete removes the trace and its index entry.
func (r *Recorder) Delete(ctx context.Context, id string) error {
	pipe := r.client.Pipeline()

	pipe.Del(ctx, r.key(id))
	pipe.ZRem(ctx, r.indexKey(), id)

	_, err := pipe.Exec(ctx)
	return err
}

// List returns recorded run IDs, most recently started first.
func (r *Recorder) List(ctx context.Context) ([]string, error) {
	// Lazy cleanup: the trace values expire on their own when a TTL is set,
	// so prune index entries whose trace has already expired.
	if r.ttl > 0 {
		cutoff := score(time.Now().Add(-r.ttl))
		err := r.client.ZRemRangeByScore(ctx, r.indexKey(), "-inf", fmt.Sprintf("%f", cutoff)).Err()
		if err != nil {
			return nil, fmt.Errorf("failed to prune expired traces: %w", err)
		}
	}

	ids, err := r.client.ZRevRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list traces: %w", err)
	}

	return ids, nil
}

// Close closes the redis client.
func (r *Recorder) Close() error {
	return r.client.Close()
}
