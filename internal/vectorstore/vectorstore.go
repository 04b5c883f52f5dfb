// Package vectorstore adapts the Semantic matcher's rule-vector persistence
// onto two interchangeable backends: an embedded
// chromem-go store (default, zero external dependency) and a Qdrant-backed
// store for deployments that already run Qdrant. Both satisfy
// internal/matcher.VectorIndex.
package vectorstore

import (
	"context"

	"github.com/fyrsmithlabs/intentd/internal/matcher"
)

// noopIndex is used when VectorStore.Provider == "none": the Semantic
// matcher re-encodes every rule on every compile, but still runs correctly.
type noopIndex struct{}

func (noopIndex) Load(context.Context, string) ([]matcher.PersistedVector, bool) { return nil, false }
func (noopIndex) Store(context.Context, string, []matcher.PersistedVector) error { return nil }

// NewNoop returns a VectorIndex that never persists anything.
func NewNoop() matcher.VectorIndex { return noopIndex{} }
