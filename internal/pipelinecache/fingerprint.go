package pipelinecache

import (
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/fyrsmithlabs/intentd/internal/models"
)

// Fingerprint hashes the ordered tuple of an application's pipeline-
// relevant flags: app_key, enable_keyword, enable_regex,
// enable_semantic, enable_llm_fallback, semantic_threshold. Any change to
// one of these fields produces a different fingerprint, so a stale
// compiled Pipeline is never silently reused.
type Fingerprint uint64

// Compute derives the Fingerprint for an application, given the process-
// wide semantic similarity threshold (an application doesn't carry its
// own override in the data model, but the threshold is still
// part of what determines which Semantic matcher instance would be
// compiled).
func Compute(app models.Application, semanticThreshold float64) Fingerprint {
	tuple := fmt.Sprintf("%s|%t|%t|%t|%t|%g",
		app.AppKey,
		app.EnableKeyword,
		app.EnableRegex,
		app.EnableSemantic,
		app.EnableLLMFallback,
		semanticThreshold,
	)
	return Fingerprint(xxhash.Sum64String(tuple))
}
