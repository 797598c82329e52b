package provider

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// DefaultCacheTTL is how long reference-data reads stay cached per query key.
const DefaultCacheTTL = 5 * time.Minute

// Cache stores serialized read-endpoint responses keyed by query.
// Flush drops every entry wholesale; it runs on logout.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration)
	Flush(ctx context.Context)
}

// memoryCache is the in-process fallback cache.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

// NewMemoryCache returns an in-process TTL cache.
func NewMemoryCache() Cache {
	return &memoryCache{entries: map[string]memoryEntry{}}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	copied := make([]byte, len(entry.payload))
	copy(copied, entry.payload)
	return copied, true
}

func (c *memoryCache) Set(_ context.Context, key string, payload []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	copied := make([]byte, len(payload))
	copy(copied, payload)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{payload: copied, expiresAt: time.Now().Add(ttl)}
}

func (c *memoryCache) Flush(_ context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string]memoryEntry{}
}

// redisCache stores entries in Redis under a shared key prefix.
type redisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache returns a Redis-backed cache. Callers own the client lifetime.
func NewRedisCache(client *redis.Client) Cache {
	return &redisCache{client: client, prefix: "numstore:provider:"}
}

func (c *redisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	payload, errGet := c.client.Get(ctx, c.prefix+key).Bytes()
	if errGet != nil {
		if errGet != redis.Nil {
			log.WithError(errGet).Warnf("provider cache: get failed (key=%s)", key)
		}
		return nil, false
	}
	return payload, true
}

func (c *redisCache) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	if errSet := c.client.Set(ctx, c.prefix+key, payload, ttl).Err(); errSet != nil {
		log.WithError(errSet).Warnf("provider cache: set failed (key=%s)", key)
	}
}

func (c *redisCache) Flush(ctx context.Context) {
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if errIter := iter.Err(); errIter != nil {
		log.WithError(errIter).Warn("provider cache: flush scan failed")
		return
	}
	if len(keys) == 0 {
		return
	}
	if errDel := c.client.Del(ctx, keys...).Err(); errDel != nil {
		log.WithError(errDel).Warn("provider cache: flush delete failed")
	}
}
