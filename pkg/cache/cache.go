package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache TTLs
const (
	TTLQueue   = 1 * time.Minute // review queue (changes on every decision)
	TTLStats   = 3 * time.Minute // moderation stats (aggregate queries)
	TTLContent = 5 * time.Minute // published content reads
	TTLDefault = 5 * time.Minute
)

// Cache key prefixes
const (
	PrefixQueue   = "moderation:queue:"
	PrefixStats   = "moderation:stats:"
	PrefixContent = "content:"
)

// ContentKey returns the cache key for a content item by id
func ContentKey(id uint64) string {
	return fmt.Sprintf("%s%d", PrefixContent, id)
}

// ContentSlugKey returns the cache key for a content item by slug
func ContentSlugKey(slug string) string {
	return PrefixContent + "slug:" + slug
}

// Service is a thin Redis cache used for moderation queue, stats and content
// reads. All operations degrade to no-ops when Redis is unavailable.
type Service interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error

	GetQueue(ctx context.Context, limit int, dest interface{}) error
	SetQueue(ctx context.Context, limit int, data interface{}) error
	GetStats(ctx context.Context, days int, dest interface{}) error
	SetStats(ctx context.Context, days int, data interface{}) error
	InvalidateModeration(ctx context.Context) error

	GetContent(ctx context.Context, contentID uint64, dest interface{}) error
	SetContent(ctx context.Context, contentID uint64, data interface{}) error
	GetContentBySlug(ctx context.Context, slug string, dest interface{}) error
	SetContentBySlug(ctx context.Context, slug string, data interface{}) error
	InvalidateContent(ctx context.Context, contentID uint64, slug string) error

	IsAvailable() bool
}

type redisCache struct {
	client *redis.Client
}

// NewService creates a cache service backed by the given Redis client
func NewService(client *redis.Client) Service {
	return &redisCache{client: client}
}

func (c *redisCache) IsAvailable() bool {
	return c.client != nil
}

func (c *redisCache) Get(ctx context.Context, key string, dest interface{}) error {
	if c.client == nil {
		return fmt.Errorf("redis not available")
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}

	return json.Unmarshal(data, dest)
}

func (c *redisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c.client == nil {
		return nil // no Redis, silently skip
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, key, data, ttl).Err()
}

func (c *redisCache) Delete(ctx context.Context, keys ...string) error {
	if c.client == nil {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *redisCache) queueKey(limit int) string {
	return fmt.Sprintf("%s%d", PrefixQueue, limit)
}

func (c *redisCache) statsKey(days int) string {
	return fmt.Sprintf("%s%d", PrefixStats, days)
}

func (c *redisCache) GetQueue(ctx context.Context, limit int, dest interface{}) error {
	return c.Get(ctx, c.queueKey(limit), dest)
}

func (c *redisCache) SetQueue(ctx context.Context, limit int, data interface{}) error {
	return c.Set(ctx, c.queueKey(limit), data, TTLQueue)
}

func (c *redisCache) GetStats(ctx context.Context, days int, dest interface{}) error {
	return c.Get(ctx, c.statsKey(days), dest)
}

func (c *redisCache) SetStats(ctx context.Context, days int, data interface{}) error {
	return c.Set(ctx, c.statsKey(days), data, TTLStats)
}

// InvalidateModeration drops all moderation queue/stats entries. Called after
// every moderation decision so the queue never shows stale rows.
func (c *redisCache) InvalidateModeration(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	if err := c.deleteByPattern(ctx, PrefixQueue+"*"); err != nil {
		return err
	}
	return c.deleteByPattern(ctx, PrefixStats+"*")
}

func (c *redisCache) GetContent(ctx context.Context, contentID uint64, dest interface{}) error {
	return c.Get(ctx, ContentKey(contentID), dest)
}

func (c *redisCache) SetContent(ctx context.Context, contentID uint64, data interface{}) error {
	return c.Set(ctx, ContentKey(contentID), data, TTLContent)
}

func (c *redisCache) GetContentBySlug(ctx context.Context, slug string, dest interface{}) error {
	return c.Get(ctx, ContentSlugKey(slug), dest)
}

func (c *redisCache) SetContentBySlug(ctx context.Context, slug string, data interface{}) error {
	return c.Set(ctx, ContentSlugKey(slug), data, TTLContent)
}

// InvalidateContent drops both lookup keys of a content item. Called after any
// write that changes what a read would return, moderation decisions included.
func (c *redisCache) InvalidateContent(ctx context.Context, contentID uint64, slug string) error {
	if c.client == nil {
		return nil
	}
	return c.client.Del(ctx, ContentKey(contentID), ContentSlugKey(slug)).Err()
}

func (c *redisCache) deleteByPattern(ctx context.Context, pattern string) error {
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
