package embeddings

import (
	"context"
	"encoding/binary"
	"hash/fnv"
	"math"
	"math/rand"
)

// PseudoDimension is the fixed dimension used by PseudoProvider, matching
// the default bge-small family dimension so it drops into the same semantic
// matcher code path without a dimension mismatch.
const PseudoDimension = 384

// PseudoProvider is a degraded-mode Provider: it never contacts a model or
// a remote service. Each text is hashed to a seed and expanded into a
// deterministic unit-norm vector, so the same input always yields the same
// vector (stable cache keys, stable semantic-matcher behavior across
// restarts) without any real semantic signal. It exists purely so the
// pipeline can keep running, with a warning, when the configured
// embedding encoder fails to load at startup; that choice is made once at
// startup, never per-request.
type PseudoProvider struct {
	dimension int
}

// NewPseudoProvider returns a PseudoProvider. dim <= 0 selects PseudoDimension.
func NewPseudoProvider(dim int) *PseudoProvider {
	if dim <= 0 {
		dim = PseudoDimension
	}
	return &PseudoProvider{dimension: dim}
}

func (p *PseudoProvider) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = p.vector(t)
	}
	return out, nil
}

func (p *PseudoProvider) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyInput
	}
	return p.vector(text), nil
}

func (p *PseudoProvider) Dimension() int { return p.dimension }

func (p *PseudoProvider) Close() error { return nil }

// vector derives a unit-norm pseudo-embedding from a 64-bit FNV hash of
// text, seeding a PRNG so the result is fully deterministic.
func (p *PseudoProvider) vector(text string) []float32 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seedBytes := h.Sum(nil)
	seed := int64(binary.BigEndian.Uint64(seedBytes))

	rng := rand.New(rand.NewSource(seed))
	vec := make([]float32, p.dimension)
	var sumSquares float64
	for i := range vec {
		v := rng.NormFloat64()
		vec[i] = float32(v)
		sumSquares += v * v
	}

	norm := float32(math.Sqrt(sumSquares))
	if norm == 0 {
		return vec
	}
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}
