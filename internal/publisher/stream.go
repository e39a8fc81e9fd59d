package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	rediscommon "wisefido-vitalsim/common/redis"
	"wisefido-vitalsim/internal/models"
)

const (
	DefaultStream       = "vitalsim:samples:stream"
	DefaultStreamMaxLen = 10000
)

// StreamSink appends every reading to a Redis stream, trimmed approximately to maxLen
type StreamSink struct {
	client *redis.Client
	stream string
	maxLen int64
}

func NewStreamSink(client *redis.Client, stream string, maxLen int64) *StreamSink {
	if stream == "" {
		stream = DefaultStream
	}
	if maxLen <= 0 {
		maxLen = DefaultStreamMaxLen
	}
	return &StreamSink{client: client, stream: stream, maxLen: maxLen}
}

func (s *StreamSink) Publish(ctx context.Context, r models.Reading) error {
	if _, err := rediscommon.PublishJSONToStream(ctx, s.client, s.stream, s.maxLen, r); err != nil {
		return fmt.Errorf("failed to publish to stream %s: %w", s.stream, err)
	}
	return nil
}

// Recent the newest count readings, oldest first
func (s *StreamSink) Recent(ctx context.Context, count int64) ([]models.Reading, error) {
	msgs, err := rediscommon.ReadRecent(ctx, s.client, s.stream, count)
	if err != nil {
		return nil, fmt.Errorf("failed to read stream %s: %w", s.stream, err)
	}

	readings := make([]models.Reading, 0, len(msgs))
	for _, m := range msgs {
		raw, ok := m.Values["data"].(string)
		if !ok {
			continue
		}
		var r models.Reading
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			return nil, fmt.Errorf("failed to unmarshal stream entry %s: %w", m.ID, err)
		}
		readings = append(readings, r)
	}
	return readings, nil
}
