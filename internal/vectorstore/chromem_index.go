package vectorstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/philippgille/chromem-go"

	"github.com/fyrsmithlabs/intentd/internal/matcher"
)

// ChromemIndex persists Semantic matcher rule vectors in an embedded
// chromem-go database, one collection per category. It is the default
// VectorStore.Provider — no external service required, optionally
// on-disk-persistent when a Path is configured.
type ChromemIndex struct {
	db         *chromem.DB
	collPrefix string

	mu      sync.Mutex
	colls   map[string]*chromem.Collection
	shadow  map[string][]matcher.PersistedVector // category ID -> last-stored vectors, for Load
}

// NewChromemIndex opens (or creates) the database at path. An empty path
// keeps everything in memory, which is adequate for tests and single-shot
// CLI runs.
func NewChromemIndex(path, collectionPrefix string) (*ChromemIndex, error) {
	var db *chromem.DB
	var err error
	if path == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(path, true)
		if err != nil {
			return nil, fmt.Errorf("opening chromem db at %q: %w", path, err)
		}
	}
	if collectionPrefix == "" {
		collectionPrefix = "intentd_semantic"
	}
	return &ChromemIndex{
		db:         db,
		collPrefix: collectionPrefix,
		colls:      map[string]*chromem.Collection{},
		shadow:     map[string][]matcher.PersistedVector{},
	}, nil
}

func (c *ChromemIndex) collectionName(categoryID string) string {
	return c.collPrefix + "_" + categoryID
}

// collection returns the per-category collection, creating it if absent.
// No embedding function is supplied: every document's vector is already
// computed by the Embedding Encoder, so chromem never needs to embed text
// itself.
func (c *ChromemIndex) collection(categoryID string) (*chromem.Collection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	name := c.collectionName(categoryID)
	if coll, ok := c.colls[name]; ok {
		return coll, nil
	}

	coll := c.db.GetCollection(name, nil)
	if coll == nil {
		var err error
		coll, err = c.db.CreateCollection(name, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("creating chromem collection %q: %w", name, err)
		}
	}
	c.colls[name] = coll
	return coll, nil
}

// Load returns the vectors most recently Store'd for this category within
// this process's lifetime. chromem-go's Collection API is similarity-query
// oriented, not a plain "list all" — the in-process shadow map is the
// authoritative fast path; the underlying collection (AddDocuments below)
// still durably persists to disk when a Path was configured, so a future
// session could be extended to rehydrate the shadow map from it on open.
func (c *ChromemIndex) Load(_ context.Context, categoryID string) ([]matcher.PersistedVector, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	vecs, ok := c.shadow[categoryID]
	return vecs, ok
}

// Store adds the given vectors to the category's collection, one document
// per rule keyed by rule ID (documents of rules not in vectors stay in the
// collection), and replaces the shadow-map entry Load reads.
func (c *ChromemIndex) Store(ctx context.Context, categoryID string, vectors []matcher.PersistedVector) error {
	coll, err := c.collection(categoryID)
	if err != nil {
		return err
	}

	docs := make([]chromem.Document, len(vectors))
	for i, v := range vectors {
		docs[i] = chromem.Document{
			ID:        v.RuleID,
			Embedding: v.Vector,
			Metadata:  map[string]string{"weight": fmt.Sprintf("%g", v.Weight), "category_id": categoryID},
		}
	}
	if err := coll.AddDocuments(ctx, docs, 1); err != nil {
		return fmt.Errorf("persisting rule vectors to chromem: %w", err)
	}

	c.mu.Lock()
	c.shadow[categoryID] = vectors
	c.mu.Unlock()
	return nil
}
