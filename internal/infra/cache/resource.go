package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/zeebo/xxh3"

	"github.com/phlask/resource-registry/internal/domain"
	"github.com/phlask/resource-registry/internal/usecase"
)

// entryTTLSeconds also bounds the stale window of the read-through race: a
// Get that loads a row just before a concurrent update commits can re-Set the
// old value after that update's invalidation. The stale copy lives at most
// this long.
const entryTTLSeconds = 300

// ResourceCache is a read-through decorator over a ResourceRepository. Get
// hits memcached first; every mutation invalidates the entry's key. Listings
// are never cached since any mutation could perturb any window.
type ResourceCache struct {
	inner usecase.ResourceRepository
	mc    *memcache.Client
}

func NewResourceCache(inner usecase.ResourceRepository, mc *memcache.Client) *ResourceCache {
	return &ResourceCache{inner: inner, mc: mc}
}

func entryKey(id string) string {
	return fmt.Sprintf("registry:resource:%x", xxh3.HashString(id))
}

func (c *ResourceCache) Get(ctx context.Context, id string) (domain.ResourceEntry, error) {
	key := entryKey(id)
	if item, err := c.mc.Get(key); err == nil {
		var entry domain.ResourceEntry
		if err := json.Unmarshal(item.Value, &entry); err == nil {
			return entry, nil
		}
		// Unreadable payload, drop it and fall through.
		c.invalidate(ctx, id)
	} else if !errors.Is(err, memcache.ErrCacheMiss) {
		slog.WarnContext(ctx, "memcached get failed",
			slog.String("error", err.Error()),
			slog.String("module", "cache"),
		)
	}

	entry, err := c.inner.Get(ctx, id)
	if err != nil {
		return domain.ResourceEntry{}, err
	}

	if raw, err := json.Marshal(entry); err == nil {
		if err := c.mc.Set(&memcache.Item{Key: key, Value: raw, Expiration: entryTTLSeconds}); err != nil {
			slog.WarnContext(ctx, "memcached set failed",
				slog.String("error", err.Error()),
				slog.String("module", "cache"),
			)
		}
	}
	return entry, nil
}

func (c *ResourceCache) Create(ctx context.Context, entry domain.ResourceEntry) error {
	if err := c.inner.Create(ctx, entry); err != nil {
		return err
	}
	c.invalidate(ctx, entry.ID)
	return nil
}

func (c *ResourceCache) Update(ctx context.Context, id string, apply domain.UpdateFunc) (domain.ResourceEntry, error) {
	merged, err := c.inner.Update(ctx, id, apply)
	if err != nil {
		return domain.ResourceEntry{}, err
	}
	c.invalidate(ctx, id)
	return merged, nil
}

func (c *ResourceCache) Delete(ctx context.Context, id string) error {
	if err := c.inner.Delete(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx, id)
	return nil
}

func (c *ResourceCache) List(ctx context.Context, filter domain.ResourceFilter, page domain.Pagination) ([]domain.ResourceEntry, int64, error) {
	return c.inner.List(ctx, filter, page)
}

func (c *ResourceCache) invalidate(ctx context.Context, id string) {
	err := c.mc.Delete(entryKey(id))
	if err != nil && !errors.Is(err, memcache.ErrCacheMiss) {
		slog.WarnContext(ctx, "memcached delete failed",
			slog.String("error", err.Error()),
			slog.String("module", "cache"),
		)
	}
}
