package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store remembers processed message keys in Redis for ttl.
type Store struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewStore(rdb redis.Cmdable, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

// EventKey names an outbox event. A relay that publishes the event again
// after a lost acknowledgement produces the same key at a new offset.
func (s *Store) EventKey(eventID string) string {
	return "idem:event:" + eventID
}

// MessageKey names a record by its log position, for messages without an
// event id.
func (s *Store) MessageKey(topic string, partition int, offset int64) string {
	return fmt.Sprintf("idem:%s:%d:%d", topic, partition, offset)
}

// Seen marks key as processed and reports whether it already was.
func (s *Store) Seen(ctx context.Context, key string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, key, "1", s.ttl).Result()
	if err != nil {
		return false, err
	}
	return !ok, nil
}

// Forget drops key so a redelivery of a message whose handling failed is not skipped.
func (s *Store) Forget(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}
