package matcher

import (
	"context"
	"sort"

	"github.com/fyrsmithlabs/intentd/internal/llmclient"
	"github.com/fyrsmithlabs/intentd/internal/models"
)

// LLMMatcher adapts the Matcher contract to internal/llmclient.Client.
// It never raises: a configuration problem or any HTTP/parse failure
// surfaces as the sentinel, recorded in the chain by the Pipeline.
type LLMMatcher struct {
	enabled bool
	client  *llmclient.Client
}

// NewLLMMatcher returns an LLMMatcher. client may be nil, in which case
// Recognize always yields the sentinel.
func NewLLMMatcher(enabled bool, client *llmclient.Client) *LLMMatcher {
	return &LLMMatcher{enabled: enabled, client: client}
}

func (m *LLMMatcher) Type() Type    { return TypeLLM }
func (m *LLMMatcher) Enabled() bool { return m.enabled }

// Initialize performs the startup health probe. It never
// fails the compile — connection status is advisory only.
func (m *LLMMatcher) Initialize(ctx context.Context, _ []models.IntentCategory, _ []models.IntentRule) error {
	if m.client != nil {
		m.client.WarmUp(ctx)
	}
	return nil
}

func (m *LLMMatcher) Shutdown(context.Context) error { return nil }

// Recognize always returns a result:
// either the classified category or the sentinel. Callers treat a
// sentinel-intent result as "no usable match".
func (m *LLMMatcher) Recognize(ctx context.Context, text string, categories []models.IntentCategory, _ []models.IntentRule) (models.IntentResult, bool, error) {
	if m.client == nil {
		return sentinelIntentResult(), true, nil
	}

	active := make([]models.IntentCategory, 0, len(categories))
	for _, c := range categories {
		if c.IsActive {
			active = append(active, c)
		}
	}
	sort.SliceStable(active, func(i, j int) bool { return active[i].Priority > active[j].Priority })

	listing := make([]llmclient.CategoryListing, len(active))
	for i, c := range active {
		listing[i] = llmclient.CategoryListing{Code: c.Code, Name: c.Name, Description: c.Description, Priority: c.Priority}
	}

	result, err := m.client.Classify(ctx, listing, text)
	if err != nil {
		return sentinelIntentResult(), true, nil
	}

	if result.Intent == llmclient.Sentinel {
		return sentinelIntentResult(), true, nil
	}

	return models.IntentResult{
		Intent:         result.Intent,
		Confidence:     clampConfidence(result.Confidence),
		RecognizerType: string(TypeLLM),
	}, true, nil
}

// IsSentinel reports whether a result is the LLM's "no category fits"
// sentinel, for callers (Pipeline, Fallback Controller) that need to tell
// a genuine classification apart from a non-match.
func IsSentinel(r models.IntentResult) bool {
	return r.Intent == llmclient.Sentinel
}

func sentinelIntentResult() models.IntentResult {
	return models.IntentResult{
		Intent:         llmclient.Sentinel,
		Confidence:     0.0,
		RecognizerType: string(TypeLLM),
	}
}
