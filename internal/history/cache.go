package history

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/classpulse/backend/internal/models"
)

const cacheKey = "polls:recent"

// Cache is a Redis read-through cache for the recent-polls list. A nil
// *Cache is valid and disables caching, so the service degrades to plain
// database reads when Redis is not configured.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCache creates a recent-polls cache with the given TTL.
func NewCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *Cache {
	return &Cache{client: client, ttl: ttl, logger: logger}
}

// Get returns the cached list, reporting false on miss or any Redis error.
func (c *Cache) Get(ctx context.Context) ([]models.PollRecord, bool) {
	if c == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, cacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("history cache read", zap.Error(err))
		}
		return nil, false
	}
	var records []models.PollRecord
	if err := json.Unmarshal(data, &records); err != nil {
		c.logger.Warn("history cache decode", zap.Error(err))
		return nil, false
	}
	return records, true
}

// Set stores the list under the cache TTL. Failures are logged and ignored.
func (c *Cache) Set(ctx context.Context, records []models.PollRecord) {
	if c == nil {
		return
	}
	data, err := json.Marshal(records)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey, data, c.ttl).Err(); err != nil {
		c.logger.Warn("history cache write", zap.Error(err))
	}
}

// Invalidate drops the cached list; called after every append so the next
// read sees the new poll.
func (c *Cache) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}
	if err := c.client.Del(ctx, cacheKey).Err(); err != nil {
		c.logger.Warn("history cache invalidate", zap.Error(err))
	}
}
