package billing

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisEventLog records processed event keys in Redis with a TTL.
// Expiry bounds the key space: gateways stop redelivering well inside
// the retention window.
type RedisEventLog struct {
	client    *redis.Client
	retention time.Duration
}

// NewRedisEventLog creates a Redis-backed event log. Retention defaults
// to 7 days when not positive, comfortably past gateway retry schedules.
func NewRedisEventLog(client *redis.Client, retention time.Duration) *RedisEventLog {
	if retention <= 0 {
		retention = 7 * 24 * time.Hour
	}
	return &RedisEventLog{client: client, retention: retention}
}

func (l *RedisEventLog) Seen(ctx context.Context, key string) (bool, error) {
	n, err := l.client.Exists(ctx, "billing:event:"+key).Result()
	if err != nil {
		return false, errors.Join(ErrStorage, err)
	}
	return n > 0, nil
}

func (l *RedisEventLog) MarkProcessed(ctx context.Context, key string, at time.Time) error {
	err := l.client.Set(ctx, "billing:event:"+key, at.UTC().Format(time.RFC3339), l.retention).Err()
	if err != nil {
		return errors.Join(ErrStorage, err)
	}
	return nil
}
