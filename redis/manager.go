// Package redis manages the shared Redis connection backing the admission
// counter store.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/aquafarm-pro/tenantcore/logger"
)

// Manager owns one Redis client, standalone or cluster
type Manager struct {
	client redis.UniversalClient
	config Config
	log    logger.Logger
}

// NewManager connects a Redis client from configuration
// log may be nil (discards)
func NewManager(cfg Config, log logger.Logger) (*Manager, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid redis config: %w", err)
	}
	if log == nil {
		log = logger.NewNop()
	}

	var client redis.UniversalClient
	switch cfg.Mode {
	case "cluster":
		client = redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:        cfg.Addrs,
			Password:     cfg.Password,
			PoolSize:     cfg.PoolSize,
			MinIdleConns: cfg.MinIdleConns,
			MaxRetries:   cfg.MaxRetries,
			DialTimeout:  cfg.DialTimeout,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		})
	default:
		client = redis.NewClient(&redis.Options{
			Addr:         cfg.Addrs[0],
			Password:     cfg.Password,
			DB:           cfg.DB,
			PoolSize:     cfg.PoolSize,
			MinIdleConns: cfg.MinIdleConns,
			MaxRetries:   cfg.MaxRetries,
			DialTimeout:  cfg.DialTimeout,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		})
	}

	log.DebugCtx(context.Background(), "redis client created",
		zap.String("mode", cfg.Mode),
		zap.Strings("addrs", cfg.Addrs))

	return &Manager{client: client, config: cfg, log: log}, nil
}

// Client the managed client
func (m *Manager) Client() redis.UniversalClient {
	return m.client
}

// Ping verifies the connection
func (m *Manager) Ping(ctx context.Context) error {
	if err := m.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close releases the client
func (m *Manager) Close() error {
	return m.client.Close()
}
