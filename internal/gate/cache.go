package gate

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultCacheTTL bounds how long an allow verdict may be reused before the
// next real membership check.
const DefaultCacheTTL = 5 * time.Minute

// RedisCache keeps allow verdicts in Redis so repeat senders skip the Bot
// API round trip. Denials are never written, so a user who just joined the
// channel is picked up on their next message.
type RedisCache struct {
	rdb *redis.Client
}

// NewRedisCache creates a cache client with connection validation.
func NewRedisCache(addr, password string, db int) (*RedisCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisCache{rdb: rdb}, nil
}

func verdictKey(channel, userID string) string {
	return fmt.Sprintf("mnemo:gate:%s:%s", channel, userID)
}

// GetAllow reports whether an allow verdict is cached for the user.
func (c *RedisCache) GetAllow(ctx context.Context, channel, userID string) (bool, error) {
	err := c.rdb.Get(ctx, verdictKey(channel, userID)).Err()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// SetAllow records an allow verdict for ttl.
func (c *RedisCache) SetAllow(ctx context.Context, channel, userID string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return c.rdb.Set(ctx, verdictKey(channel, userID), "1", ttl).Err()
}

// Ping checks if Redis is reachable.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.rdb.Close()
}
