package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
)

// DefaultDiscoveryTTL is how long a discovery document is trusted. Providers
// change it rarely.
const DefaultDiscoveryTTL = time.Hour

// MemoryDiscoveryCache keeps documents in a bounded in-process LRU with TTL.
type MemoryDiscoveryCache struct {
	lru *expirable.LRU[string, DiscoveryDocument]
}

// NewMemoryDiscoveryCache creates an in-process cache. A non-positive ttl
// falls back to DefaultDiscoveryTTL.
func NewMemoryDiscoveryCache(size int, ttl time.Duration) *MemoryDiscoveryCache {
	if size <= 0 {
		size = 16
	}
	if ttl <= 0 {
		ttl = DefaultDiscoveryTTL
	}
	return &MemoryDiscoveryCache{
		lru: expirable.NewLRU[string, DiscoveryDocument](size, nil, ttl),
	}
}

// Get returns a copy of the cached document.
func (c *MemoryDiscoveryCache) Get(_ context.Context, key string) (*DiscoveryDocument, bool, error) {
	doc, ok := c.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	return &doc, true, nil
}

// Set stores a copy of doc.
func (c *MemoryDiscoveryCache) Set(_ context.Context, key string, doc *DiscoveryDocument) error {
	c.lru.Add(key, *doc)
	return nil
}

// RedisDiscoveryCache shares discovery documents across API instances.
type RedisDiscoveryCache struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
}

// NewRedisDiscoveryCache creates a Redis-backed cache. Keys are stored under
// keyPrefix with the given TTL.
func NewRedisDiscoveryCache(client redis.UniversalClient, keyPrefix string, ttl time.Duration) *RedisDiscoveryCache {
	if ttl <= 0 {
		ttl = DefaultDiscoveryTTL
	}
	return &RedisDiscoveryCache{client: client, keyPrefix: keyPrefix, ttl: ttl}
}

func (c *RedisDiscoveryCache) key(k string) string {
	return c.keyPrefix + "discovery:" + k
}

// Get reads and decodes a cached document. A missing key is a miss, not an error.
func (c *RedisDiscoveryCache) Get(ctx context.Context, key string) (*DiscoveryDocument, bool, error) {
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read discovery document from redis: %w", err)
	}

	var doc DiscoveryDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached discovery document: %w", err)
	}
	return &doc, true, nil
}

// Set encodes and stores doc with the cache TTL.
func (c *RedisDiscoveryCache) Set(ctx context.Context, key string, doc *DiscoveryDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode discovery document: %w", err)
	}
	if err := c.client.Set(ctx, c.key(key), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write discovery document to redis: %w", err)
	}
	return nil
}
