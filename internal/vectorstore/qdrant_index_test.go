package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/intentd/internal/matcher"
	"github.com/fyrsmithlabs/intentd/internal/qdrant"
)

// fakeQdrantClient is an in-memory stand-in for qdrant.Client, enough to
// exercise QdrantIndex's collection-create-on-first-store and category
// filtering logic.
type fakeQdrantClient struct {
	collections map[string]uint64
	points      map[string][]*qdrant.Point // collection -> points
}

func newFakeQdrantClient() *fakeQdrantClient {
	return &fakeQdrantClient{collections: map[string]uint64{}, points: map[string][]*qdrant.Point{}}
}

func (f *fakeQdrantClient) CreateCollection(_ context.Context, name string, vectorSize uint64) error {
	f.collections[name] = vectorSize
	return nil
}
func (f *fakeQdrantClient) DeleteCollection(_ context.Context, name string) error {
	delete(f.collections, name)
	return nil
}
func (f *fakeQdrantClient) CollectionExists(_ context.Context, name string) (bool, error) {
	_, ok := f.collections[name]
	return ok, nil
}
func (f *fakeQdrantClient) Upsert(_ context.Context, collection string, points []*qdrant.Point) error {
	f.points[collection] = append(f.points[collection], points...)
	return nil
}
func (f *fakeQdrantClient) Search(_ context.Context, collection string, _ []float32, limit uint64, filter *qdrant.Filter) ([]*qdrant.ScoredPoint, error) {
	var wantCategory string
	if filter != nil {
		for _, c := range filter.Must {
			if c.Field == "category_id" {
				wantCategory, _ = c.Match.(string)
			}
		}
	}
	var out []*qdrant.ScoredPoint
	for _, p := range f.points[collection] {
		if wantCategory != "" && p.Payload["category_id"] != wantCategory {
			continue
		}
		out = append(out, &qdrant.ScoredPoint{Point: *p})
		if uint64(len(out)) >= limit {
			break
		}
	}
	return out, nil
}
func (f *fakeQdrantClient) Delete(_ context.Context, collection string, ids []string) error {
	return nil
}
func (f *fakeQdrantClient) Health(context.Context) error { return nil }
func (f *fakeQdrantClient) Close() error                 { return nil }

func TestQdrantIndex_StoreThenLoadRoundTrip(t *testing.T) {
	client := newFakeQdrantClient()
	idx := NewQdrantIndex(client, "test")

	vecs := []matcher.PersistedVector{
		{RuleID: "rule-1", Vector: []float32{1, 0}, Weight: 1.0},
		{RuleID: "rule-2", Vector: []float32{0, 1}, Weight: 0.5},
	}
	require.NoError(t, idx.Store(context.Background(), "cat-billing", vecs))

	loaded, ok := idx.Load(context.Background(), "cat-billing")
	require.True(t, ok)
	assert.Len(t, loaded, 2)

	_, exists := client.collections["test_semantic_rules"]
	assert.True(t, exists)
}

func TestQdrantIndex_LoadMissWhenCollectionAbsent(t *testing.T) {
	client := newFakeQdrantClient()
	idx := NewQdrantIndex(client, "test")

	_, ok := idx.Load(context.Background(), "never-stored")
	assert.False(t, ok)
}

func TestQdrantIndex_NilClientIsSafeNoop(t *testing.T) {
	idx := NewQdrantIndex(nil, "test")
	_, ok := idx.Load(context.Background(), "anything")
	assert.False(t, ok)
	assert.NoError(t, idx.Store(context.Background(), "anything", []matcher.PersistedVector{{RuleID: "r", Vector: []float32{1}}}))
}
