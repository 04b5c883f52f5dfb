// Package embeddings provides embedding generation via multiple providers.
//
// Supports FastEmbed (local ONNX) and TEI (external service) providers, plus
// a PseudoProvider degraded mode used when the configured provider fails to
// load at startup. Factory pattern enables provider selection at runtime
// with automatic dimension detection for common models.
package embeddings
