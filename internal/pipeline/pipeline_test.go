package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/intentd/internal/matcher"
	"github.com/fyrsmithlabs/intentd/internal/models"
)

// fakeMatcher is a scripted matcher.Matcher for exercising Pipeline control
// flow without depending on any concrete recognizer implementation.
type fakeMatcher struct {
	typ       matcher.Type
	enabled   bool
	result    models.IntentResult
	found     bool
	err       error
	panics    bool
	callCount int
}

func (f *fakeMatcher) Type() matcher.Type { return f.typ }
func (f *fakeMatcher) Enabled() bool      { return f.enabled }
func (f *fakeMatcher) Initialize(context.Context, []models.IntentCategory, []models.IntentRule) error {
	return nil
}
func (f *fakeMatcher) Shutdown(context.Context) error { return nil }
func (f *fakeMatcher) Recognize(ctx context.Context, text string, categories []models.IntentCategory, rules []models.IntentRule) (models.IntentResult, bool, error) {
	f.callCount++
	if f.panics {
		panic("boom")
	}
	return f.result, f.found, f.err
}

func TestPipeline_FirstAcceptable_StopsAtFirstAboveFloor(t *testing.T) {
	m1 := &fakeMatcher{typ: matcher.TypeKeyword, enabled: true, result: models.IntentResult{Intent: "a", Confidence: 0.9}, found: true}
	m2 := &fakeMatcher{typ: matcher.TypeRegex, enabled: true, result: models.IntentResult{Intent: "b", Confidence: 0.95}, found: true}

	p := New([]matcher.Matcher{m1, m2})
	outcome := p.Run(context.Background(), ModeFirstAcceptable, "text", nil, nil)

	require.True(t, outcome.Found)
	assert.Equal(t, "a", outcome.Result.Intent)
	assert.Equal(t, 1, m1.callCount)
	assert.Equal(t, 0, m2.callCount, "second matcher must not run once the first is accepted")
	assert.Len(t, outcome.Chain, 1)
	assert.Equal(t, models.ChainStatusSuccess, outcome.Chain[0].Status)
}

func TestPipeline_FirstAcceptable_BelowFloorContinues(t *testing.T) {
	m1 := &fakeMatcher{typ: matcher.TypeKeyword, enabled: true, result: models.IntentResult{Intent: "a", Confidence: 0.3}, found: true}
	m2 := &fakeMatcher{typ: matcher.TypeRegex, enabled: true, result: models.IntentResult{Intent: "b", Confidence: 0.8}, found: true}

	p := New([]matcher.Matcher{m1, m2})
	outcome := p.Run(context.Background(), ModeFirstAcceptable, "text", nil, nil)

	require.True(t, outcome.Found)
	assert.Equal(t, "b", outcome.Result.Intent)
	assert.Len(t, outcome.Chain, 2)

	// The rejected sub-floor result is not a success in the chain: it is
	// recorded as no_match, with no intent or confidence.
	assert.Equal(t, models.ChainStatusNoMatch, outcome.Chain[0].Status)
	assert.Empty(t, outcome.Chain[0].Intent)
	assert.Zero(t, outcome.Chain[0].Confidence)
	assert.Equal(t, models.ChainStatusSuccess, outcome.Chain[1].Status)
}

func TestPipeline_FirstAcceptable_DisabledMatcherSkipped(t *testing.T) {
	m1 := &fakeMatcher{typ: matcher.TypeKeyword, enabled: false}
	m2 := &fakeMatcher{typ: matcher.TypeRegex, enabled: true, result: models.IntentResult{Intent: "b", Confidence: 0.8}, found: true}

	p := New([]matcher.Matcher{m1, m2})
	outcome := p.Run(context.Background(), ModeFirstAcceptable, "text", nil, nil)

	require.True(t, outcome.Found)
	assert.Equal(t, 0, m1.callCount)
	assert.Equal(t, models.ChainStatusSkipped, outcome.Chain[0].Status)
	assert.Equal(t, models.ChainStatusSuccess, outcome.Chain[1].Status)
}

func TestPipeline_FirstAcceptable_NoneMatchYieldsEmptyResult(t *testing.T) {
	m1 := &fakeMatcher{typ: matcher.TypeKeyword, enabled: true, found: false}
	m2 := &fakeMatcher{typ: matcher.TypeRegex, enabled: true, found: false}

	p := New([]matcher.Matcher{m1, m2})
	outcome := p.Run(context.Background(), ModeFirstAcceptable, "text", nil, nil)

	assert.False(t, outcome.Found)
	assert.Len(t, outcome.Chain, 2)
	for _, entry := range outcome.Chain {
		assert.Equal(t, models.ChainStatusNoMatch, entry.Status)
	}
}

func TestPipeline_FirstAcceptable_PanicContainedAsError(t *testing.T) {
	m1 := &fakeMatcher{typ: matcher.TypeKeyword, enabled: true, panics: true}
	m2 := &fakeMatcher{typ: matcher.TypeRegex, enabled: true, result: models.IntentResult{Intent: "b", Confidence: 0.8}, found: true}

	p := New([]matcher.Matcher{m1, m2})
	outcome := p.Run(context.Background(), ModeFirstAcceptable, "text", nil, nil)

	require.True(t, outcome.Found)
	assert.Equal(t, "b", outcome.Result.Intent)
	assert.Equal(t, models.ChainStatusError, outcome.Chain[0].Status)
	assert.Equal(t, "panic in matcher", outcome.Chain[0].Error)
}

func TestPipeline_FirstAcceptable_MatcherErrorRecordedAndContinues(t *testing.T) {
	m1 := &fakeMatcher{typ: matcher.TypeKeyword, enabled: true, err: errors.New("boom")}
	m2 := &fakeMatcher{typ: matcher.TypeRegex, enabled: true, result: models.IntentResult{Intent: "b", Confidence: 0.8}, found: true}

	p := New([]matcher.Matcher{m1, m2})
	outcome := p.Run(context.Background(), ModeFirstAcceptable, "text", nil, nil)

	require.True(t, outcome.Found)
	assert.Equal(t, models.ChainStatusError, outcome.Chain[0].Status)
	assert.Equal(t, "boom", outcome.Chain[0].Error)
}

func TestPipeline_Combined_ReturnsHighestConfidenceAcrossAll(t *testing.T) {
	m1 := &fakeMatcher{typ: matcher.TypeKeyword, enabled: true, result: models.IntentResult{Intent: "a", Confidence: 0.6}, found: true}
	m2 := &fakeMatcher{typ: matcher.TypeRegex, enabled: true, result: models.IntentResult{Intent: "b", Confidence: 0.9}, found: true}
	m3 := &fakeMatcher{typ: matcher.TypeSemantic, enabled: true, found: false}

	p := New([]matcher.Matcher{m1, m2, m3})
	outcome := p.Run(context.Background(), ModeCombined, "text", nil, nil)

	require.True(t, outcome.Found)
	assert.Equal(t, "b", outcome.Result.Intent)
	assert.Equal(t, 1, m1.callCount)
	assert.Equal(t, 1, m2.callCount)
	assert.Equal(t, 1, m3.callCount, "combined mode must run every enabled matcher")
	assert.Len(t, outcome.Chain, 3)
}

func TestPipeline_Combined_NoneFoundYieldsNotFound(t *testing.T) {
	m1 := &fakeMatcher{typ: matcher.TypeKeyword, enabled: true, found: false}
	p := New([]matcher.Matcher{m1})

	outcome := p.Run(context.Background(), ModeCombined, "text", nil, nil)
	assert.False(t, outcome.Found)
}
