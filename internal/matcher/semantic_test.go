package matcher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/intentd/internal/models"
)

// fakeEmbedder returns fixed orthogonal-ish vectors keyed by exact input
// text, letting tests assert deterministic similarity outcomes without a
// real model.
type fakeEmbedder struct {
	vectors map[string][]float32
}

func (f *fakeEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = f.vectors[t]
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return f.vectors[text], nil
}

type fakeVectorIndex struct {
	stored map[string][]PersistedVector
}

func newFakeVectorIndex() *fakeVectorIndex {
	return &fakeVectorIndex{stored: map[string][]PersistedVector{}}
}

func (f *fakeVectorIndex) Load(_ context.Context, categoryID string) ([]PersistedVector, bool) {
	v, ok := f.stored[categoryID]
	return v, ok
}

func (f *fakeVectorIndex) Store(_ context.Context, categoryID string, vectors []PersistedVector) error {
	f.stored[categoryID] = vectors
	return nil
}

func TestSemanticMatcher_RecognizesAboveThreshold(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"cancel my order": {1, 0},
		"cancel":          {1, 0},
		"track my order":  {0, 1},
	}}
	m := NewSemanticMatcher(true, 0.5, embedder, nil)

	categories := []models.IntentCategory{{ID: "cat-cancel", Code: "cancel_order", IsActive: true}}
	rules := []models.IntentRule{
		{ID: "rule-1", CategoryID: "cat-cancel", RuleType: models.RuleTypeSemantic, Content: "cancel", IsActive: true, Enabled: true, Weight: 1.0},
	}
	require.NoError(t, m.Initialize(context.Background(), categories, rules))

	result, ok, err := m.Recognize(context.Background(), "cancel my order", nil, nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "cancel_order", result.Intent)
	assert.InDelta(t, 1.0, result.Confidence, 0.001)
}

func TestSemanticMatcher_BelowThresholdRejected(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"totally unrelated": {0, 1},
		"cancel":             {1, 0},
	}}
	m := NewSemanticMatcher(true, 0.9, embedder, nil)

	categories := []models.IntentCategory{{ID: "cat-cancel", Code: "cancel_order", IsActive: true}}
	rules := []models.IntentRule{
		{ID: "rule-1", CategoryID: "cat-cancel", RuleType: models.RuleTypeSemantic, Content: "cancel", IsActive: true, Enabled: true, Weight: 1.0},
	}
	require.NoError(t, m.Initialize(context.Background(), categories, rules))

	_, ok, err := m.Recognize(context.Background(), "totally unrelated", nil, nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSemanticMatcher_PersistsAndReloadsFromIndex(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{"cancel": {1, 0}}}
	index := newFakeVectorIndex()

	categories := []models.IntentCategory{{ID: "cat-cancel", Code: "cancel_order", IsActive: true}}
	rules := []models.IntentRule{
		{ID: "rule-1", CategoryID: "cat-cancel", RuleType: models.RuleTypeSemantic, Content: "cancel", IsActive: true, Enabled: true, Weight: 1.0},
	}

	m1 := NewSemanticMatcher(true, 0.5, embedder, index)
	require.NoError(t, m1.Initialize(context.Background(), categories, rules))
	require.Len(t, index.stored["cat-cancel"], 1)

	// A second matcher's embedder knows the query text but not the rule
	// content, so it can only recognize if Initialize loaded the rule
	// vectors from the index instead of encoding the rules itself.
	queryOnlyEmbedder := &fakeEmbedder{vectors: map[string][]float32{"cancel please": {1, 0}}}
	m2 := NewSemanticMatcher(true, 0.5, queryOnlyEmbedder, index)
	require.NoError(t, m2.Initialize(context.Background(), categories, rules))

	result, ok, err := m2.Recognize(context.Background(), "cancel please", nil, nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "cancel_order", result.Intent)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 0}, []float32{1, 0}), 0.0001)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 0.0001)
	assert.Equal(t, 0.0, cosineSimilarity(nil, []float32{1}))
}
