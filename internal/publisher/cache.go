package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"wisefido-vitalsim/internal/models"
)

const (
	DefaultKeyPrefix   = "vitalsim:session:"
	DefaultRealtimeTTL = 10 * time.Second
)

// CacheSink keeps the latest reading of each session under {prefix}{session}:realtime
type CacheSink struct {
	kv     KVStore
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

func NewCacheSink(kv KVStore, prefix string, ttl time.Duration, logger *zap.Logger) *CacheSink {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	if ttl <= 0 {
		ttl = DefaultRealtimeTTL
	}
	return &CacheSink{
		kv:     kv,
		prefix: prefix,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *CacheSink) key(sessionID string) string {
	return fmt.Sprintf("%s%s:realtime", c.prefix, sessionID)
}

func (c *CacheSink) Publish(ctx context.Context, r models.Reading) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal reading: %w", err)
	}

	key := c.key(r.SessionID)
	if err := c.kv.Set(ctx, key, string(data), c.ttl); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}

	c.logger.Debug("Updated realtime cache",
		zap.String("session_id", r.SessionID),
		zap.String("key", key),
	)
	return nil
}

// Latest the cached reading of a session; ErrCacheMiss when expired
func (c *CacheSink) Latest(ctx context.Context, sessionID string) (models.Reading, error) {
	raw, err := c.kv.Get(ctx, c.key(sessionID))
	if err != nil {
		return models.Reading{}, err
	}

	var r models.Reading
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return models.Reading{}, fmt.Errorf("failed to unmarshal cached reading: %w", err)
	}
	return r, nil
}
