package matcher

import (
	"context"
	"regexp"
	"sync"

	"github.com/fyrsmithlabs/intentd/internal/logging"
	"github.com/fyrsmithlabs/intentd/internal/models"
	"go.uber.org/zap"
)

// compiledRule pairs a compiled pattern with the rule and category it came
// from; capture-group names for entity extraction come from re.
type compiledRule struct {
	re           *regexp.Regexp
	rule         models.IntentRule
	categoryCode string
}

// RegexMatcher tries compiled rule patterns against the raw input text.
// Every active regex rule is compiled
// case-insensitively (Go's RE2 engine is already Unicode-aware, so no
// separate "unicode mode" flag is needed); invalid patterns are logged and
// skipped, never fatal.
type RegexMatcher struct {
	enabled bool
	logger  *logging.Logger

	mu       sync.Mutex
	built    bool
	compiled []compiledRule
}

// NewRegexMatcher returns a RegexMatcher. logger may be nil in tests.
func NewRegexMatcher(enabled bool, logger *logging.Logger) *RegexMatcher {
	return &RegexMatcher{enabled: enabled, logger: logger}
}

func (m *RegexMatcher) Type() Type     { return TypeRegex }
func (m *RegexMatcher) Enabled() bool  { return m.enabled }
func (m *RegexMatcher) Shutdown(context.Context) error { return nil }

func (m *RegexMatcher) Initialize(ctx context.Context, categories []models.IntentCategory, rules []models.IntentRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.built {
		return nil
	}

	byCategory := make(map[string]string, len(categories))
	for _, c := range categories {
		if c.IsActive {
			byCategory[c.ID] = c.Code
		}
	}

	var compiled []compiledRule
	for _, r := range rules {
		if r.RuleType != models.RuleTypeRegex || !r.IsActive || !r.Enabled {
			continue
		}
		code, ok := byCategory[r.CategoryID]
		if !ok {
			continue
		}
		re, err := regexp.Compile("(?i)" + r.Content)
		if err != nil {
			if m.logger != nil {
				m.logger.Warn(ctx, "regex matcher: skipping invalid pattern",
					zap.String("rule_id", r.ID), zap.Error(err))
			}
			continue
		}
		compiled = append(compiled, compiledRule{re: re, rule: r, categoryCode: code})
	}

	m.compiled = compiled
	m.built = true
	return nil
}

// Recognize runs every compiled pattern: first successful search per
// pattern, highest confidence across all patterns wins.
func (m *RegexMatcher) Recognize(_ context.Context, text string, _ []models.IntentCategory, _ []models.IntentRule) (models.IntentResult, bool, error) {
	m.mu.Lock()
	compiled := m.compiled
	m.mu.Unlock()

	inputLen := float64(len([]rune(text)))
	if inputLen == 0 {
		return models.IntentResult{}, false, nil
	}

	var (
		best       models.IntentResult
		bestScore  float64
		found      bool
	)

	for _, c := range compiled {
		loc := c.re.FindStringSubmatchIndex(text)
		if loc == nil {
			continue
		}
		matchLen := float64(len([]rune(text[loc[0]:loc[1]])))
		coverage := matchLen / inputLen
		confidence := (0.7 + 0.3*coverage) * c.rule.Weight
		if confidence > 1.0 {
			confidence = 1.0
		}
		if found && confidence <= bestScore {
			continue
		}

		entities := map[string]string{}
		names := c.re.SubexpNames()
		for i, name := range names {
			if name == "" || 2*i+1 >= len(loc) || loc[2*i] < 0 {
				continue
			}
			entities[name] = text[loc[2*i]:loc[2*i+1]]
		}

		best = models.IntentResult{
			Intent:     c.categoryCode,
			Confidence: clampConfidence(confidence),
			Entities:   entities,
			MatchedRules: []models.MatchedRule{{
				ID:      c.rule.ID,
				Type:    c.rule.RuleType,
				Content: c.rule.Content,
				Weight:  c.rule.Weight,
			}},
			RecognizerType: string(TypeRegex),
		}
		bestScore = confidence
		found = true
	}

	if !found {
		return models.IntentResult{}, false, nil
	}
	if len(best.Entities) == 0 {
		best.Entities = nil
	}
	return best, true, nil
}
