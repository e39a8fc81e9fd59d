package redis

import (
	"context"
	"fmt"
	"time"

	"wisefido-vitalsim/common/config"

	"github.com/go-redis/redis/v8"
)

// Client is the go-redis client type
type Client = redis.Client

// Defaults sized for a handful of sink writes per tick
const (
	DefaultPoolSize    = 8
	DefaultDialTimeout = 2 * time.Second
	DefaultPingTimeout = 3 * time.Second
)

// NewRedisClient creates a client from cfg, filling pool and dial defaults
func NewRedisClient(cfg *config.RedisConfig) *redis.Client {
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = DefaultPoolSize
	}
	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = DefaultDialTimeout
	}

	return redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		PoolSize:    poolSize,
		DialTimeout: dialTimeout,
		MaxRetries:  1,
	})
}

// Ping checks connectivity, bounded by DefaultPingTimeout when ctx has no deadline
func Ping(ctx context.Context, client *redis.Client) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultPingTimeout)
		defer cancel()
	}
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis at %s: %w", client.Options().Addr, err)
	}
	return nil
}

// Close closes client if it is non-nil
func Close(client *redis.Client) error {
	if client == nil {
		return nil
	}
	return client.Close()
}
