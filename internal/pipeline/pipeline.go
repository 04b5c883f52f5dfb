// Package pipeline implements the chain-of-responsibility recognition
// engine: an ordered list of matchers (keyword, regex, semantic, llm)
// run first-acceptable, with every attempt traced into a
// recognition_chain.
package pipeline

import (
	"context"
	"time"

	"github.com/fyrsmithlabs/intentd/internal/matcher"
	"github.com/fyrsmithlabs/intentd/internal/models"
)

// AcceptanceFloor is the Pipeline's internal "good enough to stop"
// threshold, distinct from the per-application confidence
// threshold enforced later by the Fallback Controller.
const AcceptanceFloor = 0.5

// Mode selects the Pipeline's execution strategy.
type Mode int

const (
	// ModeFirstAcceptable iterates matchers in order, stopping at the
	// first result whose confidence exceeds AcceptanceFloor.
	ModeFirstAcceptable Mode = iota
	// ModeCombined runs every enabled matcher and returns the highest
	// confidence result across all of them (used only on explicit request).
	ModeCombined
)

// Pipeline holds an ordered, pre-initialized list of matchers compiled for
// one application's configuration.
type Pipeline struct {
	matchers []matcher.Matcher
}

// New returns a Pipeline over matchers, in the fixed cost order the
// caller is expected to have already applied (keyword, regex, semantic,
// llm).
func New(matchers []matcher.Matcher) *Pipeline {
	return &Pipeline{matchers: matchers}
}

// Matchers returns the pipeline's matchers, for Initialize/Shutdown by the
// Pipeline Cache.
func (p *Pipeline) Matchers() []matcher.Matcher { return p.matchers }

// Outcome is what Run hands back to the caller: the best accepted result
// (if any), the full chain, and — for ModeFirstAcceptable when nothing was
// accepted — the chain alone is what the Fallback Controller consumes.
type Outcome struct {
	Result models.IntentResult
	Found  bool
	Chain  []models.ChainEntry
}

// Run executes the pipeline against one request.
func (p *Pipeline) Run(ctx context.Context, mode Mode, text string, categories []models.IntentCategory, rules []models.IntentRule) Outcome {
	switch mode {
	case ModeCombined:
		return p.runCombined(ctx, text, categories, rules)
	default:
		return p.runFirstAcceptable(ctx, text, categories, rules)
	}
}

func (p *Pipeline) runFirstAcceptable(ctx context.Context, text string, categories []models.IntentCategory, rules []models.IntentRule) Outcome {
	var chain []models.ChainEntry

	for _, m := range p.matchers {
		if !m.Enabled() {
			chain = append(chain, models.ChainEntry{
				Recognizer: string(m.Type()),
				Status:     models.ChainStatusSkipped,
			})
			continue
		}

		entry, result, found := invoke(ctx, m, text, categories, rules)
		chain = append(chain, entry)

		if found && result.Confidence > AcceptanceFloor {
			result.RecognitionChain = chain
			return Outcome{Result: result, Found: true, Chain: chain}
		}
	}

	return Outcome{Chain: chain}
}

func (p *Pipeline) runCombined(ctx context.Context, text string, categories []models.IntentCategory, rules []models.IntentRule) Outcome {
	var chain []models.ChainEntry
	var best models.IntentResult
	found := false

	for _, m := range p.matchers {
		if !m.Enabled() {
			chain = append(chain, models.ChainEntry{
				Recognizer: string(m.Type()),
				Status:     models.ChainStatusSkipped,
			})
			continue
		}

		entry, result, ok := invoke(ctx, m, text, categories, rules)
		chain = append(chain, entry)

		if ok && (!found || result.Confidence > best.Confidence) {
			best = result
			found = true
		}
	}

	if found {
		best.RecognitionChain = chain
	}
	return Outcome{Result: best, Found: found, Chain: chain}
}

// invoke wraps one matcher call with timing and panic/error containment:
// on error or panic the matcher is recorded as status=error and iteration
// continues.
func invoke(ctx context.Context, m matcher.Matcher, text string, categories []models.IntentCategory, rules []models.IntentRule) (entry models.ChainEntry, result models.IntentResult, found bool) {
	start := time.Now()
	entry.Recognizer = string(m.Type())

	defer func() {
		entry.TimeMS = float64(time.Since(start).Microseconds()) / 1000.0
		if r := recover(); r != nil {
			entry.Status = models.ChainStatusError
			entry.Error = "panic in matcher"
			found = false
		}
	}()

	res, ok, err := m.Recognize(ctx, text, categories, rules)
	if err != nil {
		entry.Status = models.ChainStatusError
		entry.Error = err.Error()
		if isTimeout(ctx) {
			entry.Reason = "timeout"
		}
		return entry, models.IntentResult{}, false
	}
	if !ok {
		entry.Status = models.ChainStatusNoMatch
		return entry, models.IntentResult{}, false
	}

	// A result at or below the acceptance floor is not accepted: the chain
	// records it as no_match, with no intent or confidence, and iteration
	// moves on to the next matcher.
	if res.Confidence <= AcceptanceFloor {
		entry.Status = models.ChainStatusNoMatch
		return entry, res, true
	}

	entry.Status = models.ChainStatusSuccess
	entry.Intent = res.Intent
	entry.Confidence = res.Confidence
	return entry, res, true
}

func isTimeout(ctx context.Context) bool {
	return ctx.Err() != nil
}
