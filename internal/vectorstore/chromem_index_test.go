package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/intentd/internal/matcher"
)

func TestChromemIndex_StoreThenLoadRoundTrip(t *testing.T) {
	idx, err := NewChromemIndex("", "")
	require.NoError(t, err)

	vecs := []matcher.PersistedVector{
		{RuleID: "rule-1", Vector: []float32{1, 0, 0}, Weight: 1.0},
		{RuleID: "rule-2", Vector: []float32{0, 1, 0}, Weight: 0.8},
	}
	require.NoError(t, idx.Store(context.Background(), "cat-billing", vecs))

	loaded, ok := idx.Load(context.Background(), "cat-billing")
	require.True(t, ok)
	assert.Len(t, loaded, 2)
	assert.Equal(t, "rule-1", loaded[0].RuleID)
}

func TestChromemIndex_LoadMissReturnsFalse(t *testing.T) {
	idx, err := NewChromemIndex("", "")
	require.NoError(t, err)

	_, ok := idx.Load(context.Background(), "never-stored")
	assert.False(t, ok)
}

func TestNoopIndex_AlwaysMisses(t *testing.T) {
	idx := NewNoop()
	_, ok := idx.Load(context.Background(), "anything")
	assert.False(t, ok)
	assert.NoError(t, idx.Store(context.Background(), "anything", nil))
}
