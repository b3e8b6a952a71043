package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"financescrapper/record"
)

// ListPusher is the subset of the redis client used by RedisSink.
type ListPusher interface {
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// RedisSink pushes records as JSON onto a Redis list.
type RedisSink struct {
	client ListPusher
	key    string
}

var _ Sink = (*RedisSink)(nil)

// NewRedisSink pushes onto the list at key.
func NewRedisSink(client ListPusher, key string) *RedisSink {
	return &RedisSink{client: client, key: key}
}

// Append implements Sink.
func (s *RedisSink) Append(ctx context.Context, r record.Record) error {
	if err := CheckComplete(r); err != nil {
		return err
	}

	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	if err := s.client.RPush(ctx, s.key, data).Err(); err != nil {
		return fmt.Errorf("failed to push record to %s: %w", s.key, err)
	}
	return nil
}
