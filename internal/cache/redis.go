// Package cache provides Redis caching utilities for the application.
package cache

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"splitboard/internal/observability"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
)

var client *redis.Client

// instrumentationHook counts Redis errors and opens a client span per command.
type instrumentationHook struct{}

func (h instrumentationHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h instrumentationHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		ctx, span := observability.GetTraceLayer().TraceRedisOperation(ctx, cmd.Name())
		defer span.End()

		err := next(ctx, cmd)
		if err != nil && !errors.Is(err, redis.Nil) {
			observability.RedisErrorRate.WithLabelValues(cmd.Name()).Inc()
			observability.RecordErrorInContext(ctx, err)
		}
		return err
	}
}

func (h instrumentationHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		ctx, span := observability.GetTraceLayer().TraceRedisOperation(ctx, "pipeline")
		defer span.End()
		span.SetAttributes(attribute.Int("db.redis.commands", len(cmds)))

		err := next(ctx, cmds)
		if err != nil && !errors.Is(err, redis.Nil) {
			observability.RedisErrorRate.WithLabelValues("pipeline").Inc()
			observability.RecordErrorInContext(ctx, err)
		}
		return err
	}
}

// NewClient builds a client for addr, which may be a host:port or a redis:// URL.
func NewClient(addr string) (*redis.Client, error) {
	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, err
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}

	c := redis.NewClient(opts)
	c.AddHook(instrumentationHook{})
	return c, nil
}

// InitRedis initializes the Redis client with the given address. The process
// keeps running without Redis if it is unreachable.
func InitRedis(addr string) {
	c, err := NewClient(addr)
	if err != nil {
		log.Printf("Redis connection warning: invalid REDIS_URL %q: %v (continuing without cache)", addr, err)
		client = nil
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Ping(ctx).Err(); err != nil {
		log.Printf("Redis connection warning: %v (continuing without cache)", err)
		_ = c.Close()
		client = nil
	} else {
		log.Println("Redis connected successfully")
		client = c
	}
}

// GetClient returns the current Redis client instance.
func GetClient() *redis.Client {
	return client
}
