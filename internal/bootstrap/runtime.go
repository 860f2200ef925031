// Package bootstrap assembles the process-wide runtime shared by the API
// server and the operator CLI.
package bootstrap

import (
	"context"
	"fmt"

	"splitboard/internal/cache"
	"splitboard/internal/config"
	"splitboard/internal/database"
	"splitboard/internal/middleware"
	"splitboard/internal/observability"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SkipSchema opens the database without applying migrations.
	SkipSchema bool
	// ServiceName labels traces.
	ServiceName string
}

// Runtime holds the connections a process needs.
type Runtime struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  *redis.Client

	shutdownTracing func(context.Context) error
}

// InitRuntime configures logging and tracing, connects to the database and
// connects to Redis. A missing Redis is tolerated; Redis stays nil.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	logger := middleware.ConfigureLogger(cfg.Env)
	observability.SetGlobalLogger(logger)

	name := opts.ServiceName
	if name == "" {
		name = "splitboard-api"
	}
	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    name,
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.TracingOTLPEndpoint,
		SamplerRatio:   cfg.TracingSamplerRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	var db *gorm.DB
	if opts.SkipSchema {
		db, err = database.Open(cfg)
	} else {
		db, err = database.Connect(ctx, cfg)
	}
	if err != nil {
		_ = shutdownTracing(ctx)
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Init Redis (may result in nil client if unreachable)
	cache.InitRedis(cfg.RedisURL)

	return &Runtime{
		Config:          cfg,
		DB:              db,
		Redis:           cache.GetClient(),
		shutdownTracing: shutdownTracing,
	}, nil
}

// ShutdownTracing flushes and stops the trace exporter.
func (r *Runtime) ShutdownTracing(ctx context.Context) error {
	if r.shutdownTracing == nil {
		return nil
	}
	return r.shutdownTracing(ctx)
}

// Close releases the database, Redis and tracing exporter. Processes that
// hand the connections to a server that closes them call ShutdownTracing
// instead.
func (r *Runtime) Close(ctx context.Context) error {
	firstErr := r.ShutdownTracing(ctx)
	if r.Redis != nil {
		if err := r.Redis.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if r.DB != nil {
		if sqlDB, err := r.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
