package metrics

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"
)

// Sink receives push-delivery counters. Implementations must never block the
// caller on failure; counting is observability, not control flow.
type Sink interface {
	Incr(ctx context.Context, name string, delta int64)
}

// RedisSink accumulates counters in Redis so that several engine processes
// share one view.
type RedisSink struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisSink(rdb *redis.Client, prefix string) *RedisSink {
	if prefix == "" {
		prefix = "push"
	}
	return &RedisSink{rdb: rdb, prefix: prefix}
}

func (s *RedisSink) Incr(ctx context.Context, name string, delta int64) {
	if err := s.rdb.IncrBy(ctx, s.prefix+":"+name, delta).Err(); err != nil {
		log.Printf("metrics: failed to increment %s: %v", name, err)
	}
}

// NopSink discards all counters. Used when Redis is not configured and in tests.
type NopSink struct{}

func (NopSink) Incr(context.Context, string, int64) {}
