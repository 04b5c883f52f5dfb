package repository

import (
	"context"
	"sync"
	"time"

	"github.com/fyrsmithlabs/intentd/internal/models"
)

// DefaultContextTTL is how long a compiled AppContext is trusted before
// LoadAppContext is asked to rebuild it.
const DefaultContextTTL = 300 * time.Second

// ContextCache memoizes LoadAppContext results per app_key. Entries expire
// after TTL; Invalidate drops one application's entry and InvalidateAll
// drops the whole cache.
//
// A mutex-guarded map of timestamped entries, with a lazy per-Get expiry
// check instead of a background sweeper.
type ContextCache struct {
	repo Repository
	ttl  time.Duration

	mu      sync.RWMutex
	entries map[string]contextCacheEntry
}

type contextCacheEntry struct {
	ctx       models.AppContext
	expiresAt time.Time
}

// NewContextCache wraps repo with a TTL cache of compiled AppContext values.
// A ttl of zero selects DefaultContextTTL.
func NewContextCache(repo Repository, ttl time.Duration) *ContextCache {
	if ttl <= 0 {
		ttl = DefaultContextTTL
	}
	return &ContextCache{
		repo:    repo,
		ttl:     ttl,
		entries: make(map[string]contextCacheEntry),
	}
}

// Get returns the AppContext for appKey, serving from cache when fresh and
// falling through to LoadAppContext otherwise.
func (c *ContextCache) Get(ctx context.Context, appKey string) (models.AppContext, error) {
	if cached, ok := c.lookup(appKey); ok {
		return cached, nil
	}

	appCtx, err := LoadAppContext(ctx, c.repo, appKey)
	if err != nil {
		return models.AppContext{}, err
	}

	c.mu.Lock()
	c.entries[appKey] = contextCacheEntry{ctx: appCtx, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()

	return appCtx, nil
}

func (c *ContextCache) lookup(appKey string) (models.AppContext, bool) {
	c.mu.RLock()
	entry, ok := c.entries[appKey]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return models.AppContext{}, false
	}
	return entry.ctx, true
}

// Invalidate drops the cached entry for one application, used after an
// admin write targeting that application is known.
func (c *ContextCache) Invalidate(appKey string) {
	c.mu.Lock()
	delete(c.entries, appKey)
	c.mu.Unlock()
}

// InvalidateAll drops every cached entry. Config repository writes of
// unknown scope (rule/category edits that don't carry an app_key) fall back
// to this wholesale bust.
func (c *ContextCache) InvalidateAll() {
	c.mu.Lock()
	c.entries = make(map[string]contextCacheEntry)
	c.mu.Unlock()
}

// PersistLogEntry delegates to the wrapped Repository; log writes never
// affect AppContext contents, so no invalidation is needed here.
func (c *ContextCache) PersistLogEntry(ctx context.Context, entry models.LogEntry) error {
	return c.repo.PersistLogEntry(ctx, entry)
}
