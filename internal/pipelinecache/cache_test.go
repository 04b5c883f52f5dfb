package pipelinecache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/intentd/internal/matcher"
	"github.com/fyrsmithlabs/intentd/internal/models"
)

type stubMatcher struct {
	initCalls     int
	shutdownCalls int
}

func (m *stubMatcher) Type() matcher.Type { return matcher.TypeKeyword }
func (m *stubMatcher) Enabled() bool      { return true }
func (m *stubMatcher) Initialize(context.Context, []models.IntentCategory, []models.IntentRule) error {
	m.initCalls++
	return nil
}
func (m *stubMatcher) Shutdown(context.Context) error {
	m.shutdownCalls++
	return nil
}
func (m *stubMatcher) Recognize(context.Context, string, []models.IntentCategory, []models.IntentRule) (models.IntentResult, bool, error) {
	return models.IntentResult{}, false, nil
}

func newCountingFactory() (*Cache, *int) {
	builds := 0
	factory := func(app models.Application, semanticThreshold float64) []matcher.Matcher {
		builds++
		return []matcher.Matcher{&stubMatcher{}}
	}
	return New(factory, 0.7), &builds
}

func TestCache_GetCompilesOnceAndCaches(t *testing.T) {
	c, builds := newCountingFactory()
	app := models.Application{AppKey: "demo", IsActive: true}

	p1, err := c.Get(context.Background(), app, nil, nil)
	require.NoError(t, err)
	p2, err := c.Get(context.Background(), app, nil, nil)
	require.NoError(t, err)

	assert.Same(t, p1, p2)
	assert.Equal(t, 1, *builds)
	assert.Equal(t, 1, c.Len())
}

func TestCache_DifferentAppKeyCompilesSeparately(t *testing.T) {
	c, builds := newCountingFactory()
	app1 := models.Application{AppKey: "demo1", IsActive: true}
	app2 := models.Application{AppKey: "demo2", IsActive: true}

	_, err := c.Get(context.Background(), app1, nil, nil)
	require.NoError(t, err)
	_, err = c.Get(context.Background(), app2, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, *builds)
	assert.Equal(t, 2, c.Len())
}

func TestCache_InvalidateRemovesOnlyThatAppKey(t *testing.T) {
	c, _ := newCountingFactory()
	app1 := models.Application{AppKey: "demo1", IsActive: true}
	app2 := models.Application{AppKey: "demo2", IsActive: true}

	_, err := c.Get(context.Background(), app1, nil, nil)
	require.NoError(t, err)
	_, err = c.Get(context.Background(), app2, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())

	c.Invalidate(context.Background(), "demo1")
	assert.Equal(t, 1, c.Len())

	// demo1 must recompile after invalidation.
	p, err := c.Get(context.Background(), app1, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, 2, c.Len())
}

func TestCache_InvalidateShutsDownMatchers(t *testing.T) {
	stub := &stubMatcher{}
	factory := func(app models.Application, semanticThreshold float64) []matcher.Matcher {
		return []matcher.Matcher{stub}
	}
	c := New(factory, 0.7)
	app := models.Application{AppKey: "demo", IsActive: true}

	_, err := c.Get(context.Background(), app, nil, nil)
	require.NoError(t, err)

	c.Invalidate(context.Background(), "demo")
	assert.Equal(t, 1, stub.shutdownCalls)
}

func TestCache_ChangedFlagsProduceNewCompile(t *testing.T) {
	c, builds := newCountingFactory()
	app := models.Application{AppKey: "demo", EnableKeyword: true, IsActive: true}

	_, err := c.Get(context.Background(), app, nil, nil)
	require.NoError(t, err)

	app.EnableKeyword = false
	_, err = c.Get(context.Background(), app, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, *builds)
	assert.Equal(t, 2, c.Len())
}
