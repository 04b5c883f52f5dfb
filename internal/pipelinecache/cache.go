package pipelinecache

import (
	"context"
	"sync"

	"github.com/fyrsmithlabs/intentd/internal/matcher"
	"github.com/fyrsmithlabs/intentd/internal/models"
	"github.com/fyrsmithlabs/intentd/internal/pipeline"
)

// MatcherFactory builds the enabled-per-application matcher instances for
// one compile. Constructing this is the Coordinator's composition root's
// job (it owns the shared singletons: embedder, LLM client, vector
// index); the Cache only orchestrates compiling and storing.
type MatcherFactory func(app models.Application, semanticThreshold float64) []matcher.Matcher

// Cache maps a config Fingerprint to a pre-initialized Pipeline.
// Reads dominate; writes are rare (only on miss), so a RWMutex with
// double-checked locking on miss. Entries never expire; they are only
// invalidated explicitly when an application's configuration changes.
type Cache struct {
	mu      sync.RWMutex
	entries map[Fingerprint]*pipeline.Pipeline
	byApp   map[string]map[Fingerprint]struct{} // app_key -> fingerprints, for per-app invalidation

	factory           MatcherFactory
	semanticThreshold float64
}

// New returns an empty Cache. factory constructs matchers for a compile;
// semanticThreshold is the process-wide default fed into Fingerprint
// computation and matcher construction.
func New(factory MatcherFactory, semanticThreshold float64) *Cache {
	return &Cache{
		entries:           make(map[Fingerprint]*pipeline.Pipeline),
		byApp:             make(map[string]map[Fingerprint]struct{}),
		factory:           factory,
		semanticThreshold: semanticThreshold,
	}
}

// Get returns the compiled Pipeline for app, compiling and caching one on
// miss.
func (c *Cache) Get(ctx context.Context, app models.Application, categories []models.IntentCategory, rules []models.IntentRule) (*pipeline.Pipeline, error) {
	fp := Compute(app, c.semanticThreshold)

	c.mu.RLock()
	if p, ok := c.entries[fp]; ok {
		c.mu.RUnlock()
		return p, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	// Double-check: another goroutine may have compiled this fingerprint
	// while we waited for the write lock.
	if p, ok := c.entries[fp]; ok {
		return p, nil
	}

	matchers := c.factory(app, c.semanticThreshold)
	for _, m := range matchers {
		if err := m.Initialize(ctx, categories, rules); err != nil {
			return nil, err
		}
	}

	p := pipeline.New(matchers)
	c.entries[fp] = p
	if c.byApp[app.AppKey] == nil {
		c.byApp[app.AppKey] = make(map[Fingerprint]struct{})
	}
	c.byApp[app.AppKey][fp] = struct{}{}

	return p, nil
}

// Invalidate drops every cache entry compiled for app_key (found through
// the byApp index), so a tenant's configuration change recompiles its
// pipeline. Matchers holding
// resources (embedding model handles, LLM client pool) are shut down
// best-effort before eviction.
func (c *Cache) Invalidate(ctx context.Context, appKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fps, ok := c.byApp[appKey]
	if !ok {
		return
	}
	for fp := range fps {
		if p, ok := c.entries[fp]; ok {
			for _, m := range p.Matchers() {
				_ = m.Shutdown(ctx)
			}
		}
		delete(c.entries, fp)
	}
	delete(c.byApp, appKey)
}

// UpdateSemanticThreshold changes the process-wide semantic threshold fed
// into Fingerprint computation and matcher construction, and evicts every
// cached pipeline: each one's fingerprint was computed against the old
// threshold, so none of them is reachable under the new value anyway, but
// dropping them explicitly also shuts down their matchers instead of
// leaking them until process exit. A no-op if the threshold is unchanged.
func (c *Cache) UpdateSemanticThreshold(ctx context.Context, threshold float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.semanticThreshold == threshold {
		return
	}
	c.semanticThreshold = threshold

	for _, p := range c.entries {
		for _, m := range p.Matchers() {
			_ = m.Shutdown(ctx)
		}
	}
	c.entries = make(map[Fingerprint]*pipeline.Pipeline)
	c.byApp = make(map[string]map[Fingerprint]struct{})
}

// Len reports the number of compiled pipelines currently cached, exposed
// as a gauge by the metrics layer.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
