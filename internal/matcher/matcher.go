// Package matcher defines the closed set of recognizer variants the
// Pipeline composes: Keyword, Regex, Semantic, and LLM. Every variant
// implements the same Matcher contract so the Pipeline can hold them as a
// uniform ordered slice without a subclass hierarchy.
package matcher

import (
	"context"

	"github.com/fyrsmithlabs/intentd/internal/models"
)

// Type is the stable identifier a matcher declares for itself; it shows up
// verbatim as recognition_chain[].recognizer and Response.final_recognizer.
type Type string

const (
	TypeKeyword  Type = "keyword"
	TypeRegex    Type = "regex"
	TypeSemantic Type = "semantic"
	TypeLLM      Type = "llm"
)

// Matcher is the contract every recognizer variant satisfies.
//
//	recognize(text, categories, rules, context?) -> IntentResult | nothing
type Matcher interface {
	// Type returns the matcher's stable identifier.
	Type() Type

	// Enabled reports whether the Pipeline should invoke this matcher at
	// all. A disabled matcher is recorded as status=skipped in the chain.
	Enabled() bool

	// Initialize is called once per compiled Pipeline, before the first
	// Recognize call. It may load models, compile patterns, or open
	// connections. Must be idempotent.
	Initialize(ctx context.Context, categories []models.IntentCategory, rules []models.IntentRule) error

	// Recognize attempts to classify text against the given categories
	// and rules. Returns (result, true) on a match, (zero, false) when
	// nothing matches. Implementations never panic or return an error for
	// ordinary "no match" outcomes — that is a Go idiom stand-in for the
	// source's "return nothing" contract; only Initialize returns an
	// error, for configuration problems that prevent the matcher from
	// running at all.
	Recognize(ctx context.Context, text string, categories []models.IntentCategory, rules []models.IntentRule) (models.IntentResult, bool, error)

	// Shutdown releases any resources acquired by Initialize.
	Shutdown(ctx context.Context) error
}

// clampConfidence caps a score to the [0, 1] range every
// IntentResult.Confidence must stay within.
func clampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
