package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/doorkeep/doorkeep/internal/directory"
)

// keyPrefix namespaces identity entries in a shared redis instance.
const keyPrefix = "doorkeep:identity:"

// RedisCache is the shared Cache backend for multi-node deployments.
// Entries are stored as JSON with a server-side TTL.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a cache over an established redis client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Get implements Cache.
func (c *RedisCache) Get(guid uuid.UUID) (*directory.Entry, error) {
	payload, err := c.client.Get(context.Background(), keyPrefix+guid.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read cache entry: %w", err)
	}

	var entry directory.Entry
	if err = json.Unmarshal(payload, &entry); err != nil {
		return nil, fmt.Errorf("failed to decode cache entry: %w", err)
	}

	return &entry, nil
}

// Set implements Cache.
func (c *RedisCache) Set(guid uuid.UUID, entry *directory.Entry, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	if err = c.client.Set(context.Background(), keyPrefix+guid.String(), payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}

	return nil
}

// Invalidate implements Cache. Deleting an absent key succeeds.
func (c *RedisCache) Invalidate(guid uuid.UUID) error {
	if err := c.client.Del(context.Background(), keyPrefix+guid.String()).Err(); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}

	return nil
}
