package vectorstore

import (
	"context"
	"fmt"

	"github.com/fyrsmithlabs/intentd/internal/matcher"
	"github.com/fyrsmithlabs/intentd/internal/qdrant"
)

// QdrantIndex persists Semantic matcher rule vectors in a single Qdrant
// collection, one point per rule, filtered by a category_id payload field
// on load. Layered over the gRPC client in internal/qdrant.
type QdrantIndex struct {
	client     qdrant.Client
	collection string
	vectorSize uint64
}

// NewQdrantIndex returns a QdrantIndex. The collection is created lazily
// on first Store, since the rule embedding dimension isn't known until
// then.
func NewQdrantIndex(client qdrant.Client, collectionPrefix string) *QdrantIndex {
	if collectionPrefix == "" {
		collectionPrefix = "intentd"
	}
	return &QdrantIndex{client: client, collection: collectionPrefix + "_semantic_rules"}
}

// Load fetches persisted vectors for a category via a filtered search.
// Qdrant has no plain "list by filter" verb in our Client contract, so a
// zero vector is used purely to satisfy Search's signature — the category
// filter, not vector proximity, determines the result set. A large limit
// stands in for "all rules in this category" (bounded per-category rule
// counts make this safe in practice).
func (q *QdrantIndex) Load(ctx context.Context, categoryID string) ([]matcher.PersistedVector, bool) {
	if q.client == nil {
		return nil, false
	}
	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil || !exists {
		return nil, false
	}
	if q.vectorSize == 0 {
		return nil, false
	}
	probe := make([]float32, q.vectorSize)
	points, err := q.client.Search(ctx, q.collection, probe, 1000, &qdrant.Filter{
		Must: []qdrant.Condition{{Field: "category_id", Match: categoryID}},
	})
	if err != nil || len(points) == 0 {
		return nil, false
	}

	out := make([]matcher.PersistedVector, 0, len(points))
	for _, p := range points {
		weight, _ := p.Payload["weight"].(float64)
		out = append(out, matcher.PersistedVector{
			RuleID: p.ID,
			Vector: p.Vector,
			Weight: weight,
		})
	}
	return out, true
}

// Store upserts one point per rule vector, tagging each with its category.
func (q *QdrantIndex) Store(ctx context.Context, categoryID string, vectors []matcher.PersistedVector) error {
	if q.client == nil || len(vectors) == 0 {
		return nil
	}
	if q.vectorSize == 0 {
		q.vectorSize = uint64(len(vectors[0].Vector))
	}

	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return fmt.Errorf("checking qdrant collection: %w", err)
	}
	if !exists {
		if err := q.client.CreateCollection(ctx, q.collection, q.vectorSize); err != nil {
			return fmt.Errorf("creating qdrant collection: %w", err)
		}
	}

	points := make([]*qdrant.Point, len(vectors))
	for i, v := range vectors {
		points[i] = &qdrant.Point{
			ID:     v.RuleID,
			Vector: v.Vector,
			Payload: map[string]interface{}{
				"category_id": categoryID,
				"weight":      v.Weight,
			},
		}
	}
	return q.client.Upsert(ctx, q.collection, points)
}
