package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"orkutbook/internal/model"
)

const (
	// LinkCachePrefix is the key prefix for cached signed media links
	LinkCachePrefix = "medialink:"

	// LinkCacheSafetyMargin is shaved off the link lifetime so a cached URL
	// is never handed out moments before it stops working
	LinkCacheSafetyMargin = 5 * time.Minute
)

// LinkCache is a bounded-lifetime memo for resolved media links, keyed by
// the stored reference. Implementations must never return an entry past its
// ExpiresAt; callers may discard the cache at will and re-resolve.
type LinkCache interface {
	// Get returns the cached link for a reference. found=false on a miss
	// or when the cached entry has expired.
	Get(ctx context.Context, reference string) (*model.ResolvedMediaLink, bool, error)

	// Set stores a link until shortly before its ExpiresAt. Links that are
	// already expired (or inside the safety margin) are not stored.
	Set(ctx context.Context, reference string, link model.ResolvedMediaLink) error

	// Invalidate drops the cached link for a reference, if any.
	Invalidate(ctx context.Context, reference string) error
}

// =============================================================================
// Redis implementation
// =============================================================================

// RedisLinkCache implements LinkCache on Redis with per-key TTLs.
type RedisLinkCache struct {
	client *redis.Client
}

// NewLinkCache creates a LinkCache backed by Redis.
func NewLinkCache(client *redis.Client) LinkCache {
	return &RedisLinkCache{client: client}
}

func linkKey(reference string) string {
	return LinkCachePrefix + reference
}

func (c *RedisLinkCache) Get(ctx context.Context, reference string) (*model.ResolvedMediaLink, bool, error) {
	raw, err := c.client.Get(ctx, linkKey(reference)).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		log.Printf("[LinkCache] Get FAILED: ref=%s err=%v", reference, err)
		return nil, false, fmt.Errorf("get link: %w", err)
	}

	var link model.ResolvedMediaLink
	if err := json.Unmarshal([]byte(raw), &link); err != nil {
		log.Printf("[LinkCache] Get parse error: ref=%s err=%v", reference, err)
		return nil, false, fmt.Errorf("parse link: %w", err)
	}

	// The TTL should have evicted this already; the check is the contract.
	if link.Expired(time.Now()) {
		return nil, false, nil
	}
	return &link, true, nil
}

func (c *RedisLinkCache) Set(ctx context.Context, reference string, link model.ResolvedMediaLink) error {
	ttl := time.Until(link.ExpiresAt) - LinkCacheSafetyMargin
	if ttl <= 0 {
		return nil
	}

	raw, err := json.Marshal(link)
	if err != nil {
		return fmt.Errorf("marshal link: %w", err)
	}

	if err := c.client.Set(ctx, linkKey(reference), raw, ttl).Err(); err != nil {
		log.Printf("[LinkCache] Set FAILED: ref=%s err=%v", reference, err)
		return fmt.Errorf("set link: %w", err)
	}
	return nil
}

func (c *RedisLinkCache) Invalidate(ctx context.Context, reference string) error {
	removed, err := c.client.Del(ctx, linkKey(reference)).Result()
	if err != nil {
		log.Printf("[LinkCache] Invalidate FAILED: ref=%s err=%v", reference, err)
		return fmt.Errorf("invalidate link: %w", err)
	}
	log.Printf("[LinkCache] Invalidate OK: ref=%s removed=%d", reference, removed)
	return nil
}

// =============================================================================
// In-memory implementation
// =============================================================================

// MemoryLinkCache implements LinkCache in process memory. Used in tests and
// in deployments without Redis; entries are dropped lazily on read.
type MemoryLinkCache struct {
	mu    sync.Mutex
	links map[string]model.ResolvedMediaLink
}

func NewMemoryLinkCache() *MemoryLinkCache {
	return &MemoryLinkCache{links: make(map[string]model.ResolvedMediaLink)}
}

func (c *MemoryLinkCache) Get(ctx context.Context, reference string) (*model.ResolvedMediaLink, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	link, ok := c.links[reference]
	if !ok {
		return nil, false, nil
	}
	if link.Expired(time.Now().Add(LinkCacheSafetyMargin)) {
		delete(c.links, reference)
		return nil, false, nil
	}
	return &link, true, nil
}

func (c *MemoryLinkCache) Set(ctx context.Context, reference string, link model.ResolvedMediaLink) error {
	if time.Until(link.ExpiresAt) <= LinkCacheSafetyMargin {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.links[reference] = link
	return nil
}

func (c *MemoryLinkCache) Invalidate(ctx context.Context, reference string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.links, reference)
	return nil
}
