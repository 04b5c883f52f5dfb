// Package fallback implements the fallback controller: it
// applies the per-application confidence threshold to a Pipeline outcome,
// attempts an LLM fallback when configured, and falls back further to a
// static fallback intent or a typed failure.
package fallback

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/fyrsmithlabs/intentd/internal/llmclient"
	"github.com/fyrsmithlabs/intentd/internal/models"
	"github.com/fyrsmithlabs/intentd/internal/pipeline"
)

// failureReasons states what went wrong, per failure type; suggestions
// below tells the caller what to do about it.
var failureReasons = map[models.FailureType]string{
	models.FailureNoMatch:       "no matcher produced an acceptable result",
	models.FailureLowConfidence: "best result fell below the application's confidence threshold",
	models.FailureConfigMissing: "application not found or has no active categories",
	models.FailureSystemError:   "internal error while processing the request",
}

var suggestions = map[models.FailureType]string{
	models.FailureNoMatch:       "add rules, enable LLM fallback, or configure a fallback intent",
	models.FailureLowConfidence: "lower the confidence threshold, add more specific rules, or enable LLM fallback",
	models.FailureConfigMissing: "create the application and at least one active category with rules",
	models.FailureSystemError:   "retry the request; if the problem persists, check service logs",
}

// Controller decides what a recognition request ultimately returns once
// the pipeline has run: accept, salvage via LLM, fall back statically, or
// fail with a typed reason.
type Controller struct {
	llm *llmclient.Client
}

// New returns a Controller. llm may be nil — LLM fallback attempts then
// always fail, recording an llm_error entry with reason
// missing_api_key_or_url.
func New(llm *llmclient.Client) *Controller {
	return &Controller{llm: llm}
}

// Decide resolves the post-pipeline branches, given a Pipeline Outcome
// for an application with a resolved AppContext. text is the original
// request utterance, needed if an LLM fallback call must be made.
func (c *Controller) Decide(ctx context.Context, text string, outcome pipeline.Outcome, app models.Application, appCtx models.AppContext) models.Response {
	threshold := app.ConfidenceThreshold
	if threshold == 0 {
		threshold = 0.7
	}

	if outcome.Found && outcome.Result.Confidence >= threshold {
		return success(outcome.Result, threshold, outcome.Chain)
	}

	if outcome.Found {
		return c.lowConfidence(ctx, text, outcome, app, appCtx, threshold)
	}

	return c.noMatch(ctx, text, outcome, app, appCtx, threshold)
}

// DecideConfigMissing handles the missing-configuration branch: no AppContext was
// resolvable at all (unknown app_key or no active categories). candidates
// is the global active-category pool used for a global LLM fallback
// attempt.
func (c *Controller) DecideConfigMissing(ctx context.Context, text string, globalLLMEnabled bool, candidates []models.IntentCategory) models.Response {
	var chain []models.ChainEntry

	var llmReason models.LLMErrorReason
	if globalLLMEnabled {
		result, ok, reason := c.tryLLM(ctx, text, candidates, &chain)
		if ok {
			return models.Response{
				Intent:           result.Intent,
				Confidence:       result.Confidence,
				RecognitionChain: chain,
				Success:          true,
				FallbackUsed:     true,
				FallbackReason:   "LLM fallback (no match)",
				FinalRecognizer:  string(llmMatcherType),
			}
		}
		llmReason = reason
	}

	return annotateLLMError(failure(models.FailureConfigMissing, chain, 0), llmReason)
}

func (c *Controller) lowConfidence(ctx context.Context, text string, outcome pipeline.Outcome, app models.Application, appCtx models.AppContext, threshold float64) models.Response {
	chain := append([]models.ChainEntry{}, outcome.Chain...)

	var llmReason models.LLMErrorReason
	if app.EnableLLMFallback {
		reason := fmt.Sprintf("LLM fallback (original confidence %.2f < %.2f)", outcome.Result.Confidence, threshold)
		result, ok, errReason := c.tryLLM(ctx, text, activeCategories(appCtx), &chain)
		if ok {
			return models.Response{
				Intent:           result.Intent,
				Confidence:       result.Confidence,
				RecognitionChain: chain,
				Success:          true,
				FallbackUsed:     true,
				FallbackReason:   reason,
				FinalRecognizer:  string(llmMatcherType),
				Threshold:        threshold,
			}
		}
		llmReason = errReason
	}

	resp := annotateLLMError(failure(models.FailureLowConfidence, chain, threshold), llmReason)
	resp.Intent = outcome.Result.Intent
	resp.Confidence = outcome.Result.Confidence
	resp.MatchedRules = outcome.Result.MatchedRules
	return resp
}

func (c *Controller) noMatch(ctx context.Context, text string, outcome pipeline.Outcome, app models.Application, appCtx models.AppContext, threshold float64) models.Response {
	chain := append([]models.ChainEntry{}, outcome.Chain...)

	var llmReason models.LLMErrorReason
	if app.EnableLLMFallback {
		result, ok, errReason := c.tryLLM(ctx, text, activeCategories(appCtx), &chain)
		if ok {
			return models.Response{
				Intent:           result.Intent,
				Confidence:       result.Confidence,
				RecognitionChain: chain,
				Success:          true,
				FallbackUsed:     true,
				FallbackReason:   "LLM fallback (no match)",
				FinalRecognizer:  string(llmMatcherType),
				Threshold:        threshold,
			}
		}
		llmReason = errReason
	}

	if app.FallbackIntentCode != "" {
		if cat, ok := appCtx.CategoryByCode(app.FallbackIntentCode); ok {
			chain = append(chain, models.ChainEntry{
				Recognizer: "fallback",
				Status:     models.ChainStatusSuccess,
				Intent:     cat.Code,
				Confidence: 0.0,
			})
			return annotateLLMError(models.Response{
				Intent:           cat.Code,
				Confidence:       0.0,
				RecognitionChain: chain,
				Success:          true,
				FinalRecognizer:  "fallback",
				Threshold:        threshold,
			}, llmReason)
		}
	}

	return annotateLLMError(failure(models.FailureNoMatch, chain, threshold), llmReason)
}

// tryLLM invokes the LLM client directly (not through the Matcher
// wrapper, since the Fallback Controller needs the raw classification
// plus sentinel check rather than the Pipeline's accept/reject logic) and
// appends its outcome to chain. ok is false for any sentinel or error
// outcome; errReason then carries the llm_error reason code the caller
// annotates its Response with.
func (c *Controller) tryLLM(ctx context.Context, text string, categories []models.IntentCategory, chain *[]models.ChainEntry) (result models.IntentResult, ok bool, errReason models.LLMErrorReason) {
	if c.llm == nil {
		*chain = append(*chain, models.ChainEntry{Recognizer: string(llmMatcherType), Status: models.ChainStatusError, Reason: string(models.LLMErrorMissingAPIKeyOrURL)})
		return models.IntentResult{}, false, models.LLMErrorMissingAPIKeyOrURL
	}

	listing := make([]llmclient.CategoryListing, len(categories))
	for i, cat := range categories {
		listing[i] = llmclient.CategoryListing{Code: cat.Code, Name: cat.Name, Description: cat.Description, Priority: cat.Priority}
	}

	classification, err := c.llm.Classify(ctx, listing, text)
	if err != nil {
		reason := models.LLMErrorAPIConnection
		if errors.Is(err, llmclient.ErrMissingConfig) {
			reason = models.LLMErrorMissingAPIKeyOrURL
		}
		*chain = append(*chain, models.ChainEntry{Recognizer: string(llmMatcherType), Status: models.ChainStatusError, Error: err.Error(), Reason: string(reason)})
		return models.IntentResult{}, false, reason
	}

	if classification.Intent == llmclient.Sentinel {
		*chain = append(*chain, models.ChainEntry{Recognizer: string(llmMatcherType), Status: models.ChainStatusNoMatch, Intent: classification.Intent})
		return models.IntentResult{}, false, models.LLMErrorNoResult
	}

	*chain = append(*chain, models.ChainEntry{
		Recognizer: string(llmMatcherType),
		Status:     models.ChainStatusSuccess,
		Intent:     classification.Intent,
		Confidence: classification.Confidence,
	})
	return models.IntentResult{Intent: classification.Intent, Confidence: classification.Confidence}, true, ""
}

// llmMatcherType labels the Controller's own LLM retry in the recognition
// chain. It is distinct from matcher.TypeLLM ("llm"), the label the
// Pipeline's own LLM matcher writes: both can appear in the same
// request's chain when the Pipeline's LLM matcher runs first (sub-
// threshold or sentinel) and the Controller retries the same llmClient,
// and the two entries must stay distinguishable.
const llmMatcherType = "llm_fallback"

func success(result models.IntentResult, threshold float64, chain []models.ChainEntry) models.Response {
	return models.Response{
		Intent:           result.Intent,
		Confidence:       result.Confidence,
		Entities:         result.Entities,
		MatchedRules:     result.MatchedRules,
		RecognitionChain: chain,
		Success:          true,
		FinalRecognizer:  result.RecognizerType,
		Threshold:        threshold,
	}
}

func failure(failureType models.FailureType, chain []models.ChainEntry, threshold float64) models.Response {
	return models.Response{
		Success:          false,
		RecognitionChain: chain,
		FailureType:      failureType,
		FailureReason:    failureReasons[failureType],
		Suggestion:       suggestions[failureType],
		Threshold:        threshold,
	}
}

// annotateLLMError stamps the llm_error sub-annotation onto a Response
// when an LLM fallback attempt was made and failed. A zero reason (no
// attempt, or the attempt succeeded) leaves the Response untouched.
func annotateLLMError(resp models.Response, reason models.LLMErrorReason) models.Response {
	if reason != "" {
		resp.LLMError = true
		resp.LLMErrorReason = reason
	}
	return resp
}

func activeCategories(appCtx models.AppContext) []models.IntentCategory {
	out := make([]models.IntentCategory, 0, len(appCtx.Categories))
	for _, c := range appCtx.Categories {
		if c.IsActive {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return out
}
