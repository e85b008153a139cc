package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces attachment keys in a shared Redis.
const DefaultRedisPrefix = "formfields:attachment:"

// Redis shares cached attachments between processes.
type Redis struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

var _ Cache = (*Redis)(nil)

// NewRedis wraps a go-redis client. A zero ttl keeps entries until deleted.
func NewRedis(client redis.Cmdable, prefix string, ttl time.Duration) *Redis {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

func (r *Redis) key(key AttachmentKey) string {
	return r.prefix + key.String()
}

// Get returns the cached payload; a missing key is not an error.
func (r *Redis) Get(ctx context.Context, key AttachmentKey) ([]byte, bool, error) {
	if r == nil || r.client == nil {
		return nil, false, errors.New("cache: redis client is nil")
	}
	value, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: redis get %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value with the configured ttl.
func (r *Redis) Set(ctx context.Context, key AttachmentKey, value []byte) error {
	if r == nil || r.client == nil {
		return errors.New("cache: redis client is nil")
	}
	if err := r.client.Set(ctx, r.key(key), value, r.ttl).Err(); err != nil {
		return fmt.Errorf("cache: redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes the keys.
func (r *Redis) Delete(ctx context.Context, keys ...AttachmentKey) error {
	if r == nil || r.client == nil {
		return errors.New("cache: redis client is nil")
	}
	if len(keys) == 0 {
		return nil
	}
	names := make([]string, len(keys))
	for idx, key := range keys {
		names[idx] = r.key(key)
	}
	if err := r.client.Del(ctx, names...).Err(); err != nil {
		return fmt.Errorf("cache: redis del: %w", err)
	}
	return nil
}
