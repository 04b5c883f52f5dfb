// Package resultcache implements the result cache: a
// Redis-backed map from (app_key, text, context) to a prior Response,
// with TTL expiry. Any store error degrades to a silent miss/not-stored —
// the core must never fail a request because the cache is down.
package resultcache

import (
	"context"
	"crypto/md5" //nolint:gosec // key fingerprint only, not used for security
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fyrsmithlabs/intentd/internal/logging"
	"github.com/fyrsmithlabs/intentd/internal/models"
)

// Cache wraps a redis.Client with the recognition result key/TTL scheme.
type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *logging.Logger
}

// New parses redisURL (a redis:// URL as accepted by redis.ParseURL) and
// returns a Cache. An unparsable URL yields a Cache whose operations are
// always a no-op miss, consistent with "the core must not fail because
// the cache is down."
func New(redisURL, prefix string, ttl time.Duration, logger *logging.Logger) *Cache {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		if logger != nil {
			logger.Warn(context.Background(), "resultcache: invalid redis url, caching disabled")
		}
		return &Cache{prefix: prefix, ttl: ttl, logger: logger}
	}
	return &Cache{client: redis.NewClient(opts), prefix: prefix, ttl: ttl, logger: logger}
}

// Key computes md5(app_key + ":" + text + ":" + canonical_json(context))
// as hex.
func Key(appKey, text string, reqContext map[string]any) string {
	canon, err := canonicalJSON(reqContext)
	if err != nil {
		canon = "{}"
	}
	sum := md5.Sum([]byte(appKey + ":" + text + ":" + canon)) //nolint:gosec
	return hex.EncodeToString(sum[:])
}

// canonicalJSON serializes a map with sorted keys so identical contexts
// always hash to the same key regardless of map iteration order.
func canonicalJSON(m map[string]any) (string, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Get looks up a cached Response. ok is false on miss, unreachable store,
// or decode error — callers treat all three identically.
func (c *Cache) Get(ctx context.Context, appKey, text string, reqContext map[string]any) (models.Response, bool) {
	if c.client == nil {
		return models.Response{}, false
	}
	key := c.prefix + ":" + Key(appKey, text, reqContext)

	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return models.Response{}, false
	}

	var resp models.Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return models.Response{}, false
	}
	return resp, true
}

// Set stores resp under the (app_key, text, context) key with the
// configured TTL. Errors are logged and swallowed.
func (c *Cache) Set(ctx context.Context, appKey, text string, reqContext map[string]any, resp models.Response) {
	if c.client == nil {
		return
	}
	key := c.prefix + ":" + Key(appKey, text, reqContext)

	raw, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		if c.logger != nil {
			c.logger.Warn(ctx, fmt.Sprintf("resultcache: set failed for key %s", key))
		}
	}
}

// Close releases the underlying Redis connection pool.
func (c *Cache) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}
