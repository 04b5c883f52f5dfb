package embeddings

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPseudoProvider_Deterministic(t *testing.T) {
	p := NewPseudoProvider(0)
	assert.Equal(t, PseudoDimension, p.Dimension())

	ctx := context.Background()
	v1, err := p.EmbedQuery(ctx, "refund my order")
	require.NoError(t, err)
	v2, err := p.EmbedQuery(ctx, "refund my order")
	require.NoError(t, err)
	assert.Equal(t, v1, v2, "same text must yield the same pseudo-vector")

	v3, err := p.EmbedQuery(ctx, "cancel my subscription")
	require.NoError(t, err)
	assert.NotEqual(t, v1, v3)
}

func TestPseudoProvider_UnitNorm(t *testing.T) {
	p := NewPseudoProvider(16)
	vec, err := p.EmbedQuery(context.Background(), "hello")
	require.NoError(t, err)

	var sumSquares float64
	for _, v := range vec {
		sumSquares += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sumSquares), 1e-5)
}

func TestPseudoProvider_EmptyInput(t *testing.T) {
	p := NewPseudoProvider(0)
	ctx := context.Background()

	_, err := p.EmbedQuery(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = p.EmbedDocuments(ctx, nil)
	assert.ErrorIs(t, err, ErrEmptyInput)
}
