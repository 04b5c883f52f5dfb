package embeddings

import "testing"

// TestEmbedderInterface verifies that Service satisfies Embedder and
// teiProvider satisfies Provider. This will fail to compile if either
// drifts from its interface.
func TestEmbedderInterface(t *testing.T) {
	var _ Embedder = (*Service)(nil)
	var _ Provider = (*teiProvider)(nil)
}
