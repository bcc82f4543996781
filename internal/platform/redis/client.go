// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package redis connects the shared identity cache.

The authenticator resolves a username to its authorities on every bearer
request. With several API replicas, caching those lookups in Redis keeps the
credential store off the hot path. Redis is optional: when REDIS_URL is unset
the service uses an in-process cache instead.

Cache calls honour the request context deadline, so a slow Redis degrades to a
store read instead of stalling the request.
*/
package redis

import (
	stdctx "context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultPoolSize         = 10
	defaultOperationTimeout = 500 * time.Millisecond
	dialTimeout             = 3 * time.Second
	pingTimeout             = 2 * time.Second
)

// ClientOption tunes the client beyond what the URL carries.
type ClientOption func(*redis.Options)

// WithPoolSize overrides the connection pool size.
func WithPoolSize(size int) ClientOption {
	return func(options *redis.Options) {
		if size > 0 {
			options.PoolSize = size
		}
	}
}

// WithOperationTimeout bounds each cache read and write.
func WithOperationTimeout(timeout time.Duration) ClientOption {
	return func(options *redis.Options) {
		if timeout > 0 {
			options.ReadTimeout = timeout
			options.WriteTimeout = timeout
		}
	}
}

// NewClient parses a redis:// URL, applies options and pings the server.
//
// # Parameters
//   - context: Context for the initial ping.
//   - redisURL: Redis connection URL; the password is never logged.
//   - logger: Structured logger for connection events.
func NewClient(context stdctx.Context, redisURL string, logger *slog.Logger, clientOptions ...ClientOption) (*redis.Client, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: invalid URL: %w", err)
	}

	if options.PoolSize == 0 {
		options.PoolSize = defaultPoolSize
	}
	options.DialTimeout = dialTimeout
	options.ReadTimeout = defaultOperationTimeout
	options.WriteTimeout = defaultOperationTimeout
	options.ContextTimeoutEnabled = true

	for _, option := range clientOptions {
		option(options)
	}

	client := redis.NewClient(options)

	// Validate connectivity immediately at startup.
	if err := Ping(context, client); err != nil {
		_ = client.Close()
		return nil, err
	}

	logger.Info("redis_client_connected",
		slog.String("addr", options.Addr),
		slog.Int("db", options.DB),
		slog.Int("pool_size", options.PoolSize),
		slog.Duration("operation_timeout", options.ReadTimeout),
	)

	return client, nil
}

// Ping verifies that the Redis client is healthy. Used by the readiness probe.
func Ping(context stdctx.Context, client redis.UniversalClient) error {
	pingCtx, cancel := stdctx.WithTimeout(context, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis: ping failed: %w", err)
	}

	return nil
}
