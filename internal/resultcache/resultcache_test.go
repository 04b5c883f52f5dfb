package resultcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fyrsmithlabs/intentd/internal/models"
)

func TestKey_StableForIdenticalInput(t *testing.T) {
	ctx := map[string]any{"locale": "en-US", "channel": "web"}
	assert.Equal(t, Key("demo", "hello", ctx), Key("demo", "hello", ctx))
}

func TestKey_StableAcrossMapKeyOrder(t *testing.T) {
	a := map[string]any{"locale": "en-US", "channel": "web"}
	b := map[string]any{"channel": "web", "locale": "en-US"}
	assert.Equal(t, Key("demo", "hello", a), Key("demo", "hello", b))
}

func TestKey_DiffersByAppKeyTextOrContext(t *testing.T) {
	base := Key("demo", "hello", map[string]any{"locale": "en-US"})
	assert.NotEqual(t, base, Key("other", "hello", map[string]any{"locale": "en-US"}))
	assert.NotEqual(t, base, Key("demo", "goodbye", map[string]any{"locale": "en-US"}))
	assert.NotEqual(t, base, Key("demo", "hello", map[string]any{"locale": "fr-FR"}))
}

func TestKey_NilAndEmptyContextEquivalent(t *testing.T) {
	assert.Equal(t, Key("demo", "hello", nil), Key("demo", "hello", map[string]any{}))
}

func TestCache_NilClientDegradesToMissAndNoop(t *testing.T) {
	c := New("not-a-valid-redis-url://###", "intentd", time.Minute, nil)

	_, ok := c.Get(context.Background(), "demo", "hello", nil)
	assert.False(t, ok)

	// Set against a nil-backed client must not panic.
	c.Set(context.Background(), "demo", "hello", nil, models.Response{Intent: "x"})

	assert.NoError(t, c.Close())
}
