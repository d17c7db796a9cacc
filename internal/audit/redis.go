package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultStreamMaxLen = 10000

// RedisSink appends entries to a Redis stream that operators can tail
type RedisSink struct {
	redis  redis.Cmdable
	stream string
	maxLen int64
}

// NewRedisSink creates a sink writing to stream. The stream is trimmed to roughly
// maxLen entries; zero selects the default.
func NewRedisSink(client redis.Cmdable, stream string, maxLen int64) *RedisSink {
	if maxLen <= 0 {
		maxLen = defaultStreamMaxLen
	}
	return &RedisSink{redis: client, stream: stream, maxLen: maxLen}
}

// Append adds entry to the stream
func (s *RedisSink) Append(ctx context.Context, entry *Entry) error {
	err := s.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: s.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"id":           entry.ID,
			"request_id":   entry.RequestID,
			"provider":     entry.Provider,
			"model":        entry.Model,
			"outcome":      entry.Outcome,
			"error":        entry.Error,
			"fields":       entry.Fields,
			"duration_ms":  entry.DurationMS,
			"raw_response": entry.RawResponse,
			"created_at":   entry.CreatedAt.UTC().Format(time.RFC3339Nano),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to append to audit stream: %w", err)
	}
	return nil
}
