package events

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/roach88/runledger/internal/ledger"
)

// DefaultStream is the Redis stream commitment events are appended to.
const DefaultStream = "runledger:events"

// streamAdder is the subset of the redis client the sink uses.
// Satisfied by *redis.Client and *redis.ClusterClient.
type streamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// RedisSink appends each event to a Redis stream with XADD.
//
// Entry fields are "event" (the event name), "run_id" and "payload"
// (the JSON payload). The stream is trimmed approximately to
// maxLen entries when maxLen > 0.
type RedisSink struct {
	client streamAdder
	stream string
	maxLen int64
}

// RedisOptions configures the Redis connection and stream.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Stream   string
	MaxLen   int64
}

// NewRedisClient creates a Redis client from opts.
func NewRedisClient(opts RedisOptions) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
}

// NewRedisSink creates a sink appending to stream. An empty stream selects
// DefaultStream.
func NewRedisSink(client streamAdder, stream string, maxLen int64) *RedisSink {
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisSink{client: client, stream: stream, maxLen: maxLen}
}

// Stream returns the target stream name.
func (s *RedisSink) Stream() string {
	return s.stream
}

// Publish implements Sink.
func (s *RedisSink) Publish(ctx context.Context, ev ledger.CommitmentEvent) error {
	payload, err := ev.MarshalPayload()
	if err != nil {
		return fmt.Errorf("redis sink: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]any{
			"event":   ev.Event,
			"run_id":  ev.RunID(),
			"payload": string(payload),
		},
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}

	if err := s.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("redis sink: xadd %s: %w", s.stream, err)
	}
	return nil
}
