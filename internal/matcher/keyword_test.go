package matcher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/intentd/internal/models"
)

func seedKeywordMatcher(t *testing.T) *KeywordMatcher {
	t.Helper()
	m := NewKeywordMatcher(true)
	categories := []models.IntentCategory{
		{ID: "cat-billing", Code: "billing", IsActive: true},
	}
	rules := []models.IntentRule{
		{ID: "rule-exact", CategoryID: "cat-billing", RuleType: models.RuleTypeKeyword, Content: "^cancel my subscription", IsActive: true, Enabled: true, Weight: 1.0},
		{ID: "rule-partial", CategoryID: "cat-billing", RuleType: models.RuleTypeKeyword, Content: "refund, invoice", IsActive: true, Enabled: true, Weight: 0.9},
	}
	require.NoError(t, m.Initialize(context.Background(), categories, rules))
	return m
}

func TestKeywordMatcher_ExactMatch(t *testing.T) {
	m := seedKeywordMatcher(t)
	result, ok, err := m.Recognize(context.Background(), "Cancel My Subscription", nil, nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "billing", result.Intent)
	assert.Equal(t, 1.0, result.Confidence)
}

func TestKeywordMatcher_PartialMatchScoring(t *testing.T) {
	m := seedKeywordMatcher(t)
	result, ok, err := m.Recognize(context.Background(), "I need a refund please", nil, nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "billing", result.Intent)
	assert.True(t, result.Confidence > 0 && result.Confidence <= 1.0)
}

func TestKeywordMatcher_NoMatch(t *testing.T) {
	m := seedKeywordMatcher(t)
	_, ok, err := m.Recognize(context.Background(), "completely unrelated text", nil, nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestKeywordMatcher_Disabled(t *testing.T) {
	m := NewKeywordMatcher(false)
	assert.False(t, m.Enabled())
	assert.Equal(t, TypeKeyword, m.Type())
}

func TestScoreBase(t *testing.T) {
	assert.Equal(t, 1.0, scoreBase("refund", "refund"))
	assert.Equal(t, 0.9, scoreBase("refund please", "refund"))
	assert.Equal(t, 0.85, scoreBase("i want a refund", "refund"))
	assert.Equal(t, 0.8, scoreBase("i want a refund today", "refund"))
	assert.Equal(t, 0.6, scoreBase("irrefundable", "refund"))
}
