// Package qdrant wraps the official Qdrant gRPC client behind the narrow
// surface the Semantic matcher's rule-vector cache needs: create and check
// collections, upsert rule vectors, and fetch them back by payload filter.
package qdrant

import (
	"context"
)

// Client is the operation set the rule-vector index consumes. The gRPC
// implementation below is the only production implementation; tests
// substitute fakes.
type Client interface {
	CreateCollection(ctx context.Context, name string, vectorSize uint64) error
	DeleteCollection(ctx context.Context, name string) error
	CollectionExists(ctx context.Context, name string) (bool, error)

	// Upsert inserts or replaces points. Point IDs may be arbitrary
	// strings; the implementation maps them to stable Qdrant point IDs and
	// restores the original on read.
	Upsert(ctx context.Context, collection string, points []*Point) error

	// Search returns up to limit points by vector proximity, optionally
	// restricted by filter. Vectors and payloads are both returned.
	Search(ctx context.Context, collection string, vector []float32, limit uint64, filter *Filter) ([]*ScoredPoint, error)

	// Delete removes points by their (caller-side) IDs.
	Delete(ctx context.Context, collection string, ids []string) error

	Health(ctx context.Context) error
	Close() error
}

// Point is one stored vector with its identifying payload.
type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]interface{}
}

// ScoredPoint is a search result.
type ScoredPoint struct {
	Point
	Score float32
}

// Filter restricts a search by payload fields.
type Filter struct {
	Must    []Condition
	MustNot []Condition
}

// Condition matches one payload field against a keyword value.
type Condition struct {
	Field string
	Match interface{}
}
