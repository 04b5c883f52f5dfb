package matcher

import (
	"context"
	"strings"
	"sync"

	"github.com/fyrsmithlabs/intentd/internal/models"
)

// partialEntry is one (category, rule) pair contributed by a keyword token.
type partialEntry struct {
	categoryCode string
	rule         models.IntentRule
}

// KeywordMatcher does literal keyword lookup:
// an exact-match table plus a substring/prefix/suffix scoring index,
// built lazily from the first rule set it sees.
type KeywordMatcher struct {
	enabled bool

	mu      sync.Mutex
	built   bool
	exact   map[string]string // normalized token -> category code
	partial map[string][]partialEntry
}

// NewKeywordMatcher returns a KeywordMatcher. enabled mirrors the
// application's enable_keyword flag.
func NewKeywordMatcher(enabled bool) *KeywordMatcher {
	return &KeywordMatcher{enabled: enabled}
}

func (m *KeywordMatcher) Type() Type     { return TypeKeyword }
func (m *KeywordMatcher) Enabled() bool  { return m.enabled }
func (m *KeywordMatcher) Shutdown(context.Context) error { return nil }

// Initialize builds the exact/partial indexes once; later calls with the
// same rule set are no-ops.
func (m *KeywordMatcher) Initialize(_ context.Context, categories []models.IntentCategory, rules []models.IntentRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.built {
		return nil
	}
	m.build(categories, rules)
	m.built = true
	return nil
}

func (m *KeywordMatcher) build(categories []models.IntentCategory, rules []models.IntentRule) {
	byCategory := make(map[string]string, len(categories)) // category ID -> code
	for _, c := range categories {
		if c.IsActive {
			byCategory[c.ID] = c.Code
		}
	}

	exact := make(map[string]string)
	partial := make(map[string][]partialEntry)

	for _, r := range rules {
		if r.RuleType != models.RuleTypeKeyword || !r.IsActive || !r.Enabled {
			continue
		}
		code, ok := byCategory[r.CategoryID]
		if !ok {
			continue
		}
		content := strings.ToLower(strings.TrimSpace(r.Content))
		if content == "" {
			continue
		}
		if strings.HasPrefix(content, "^") {
			token := strings.TrimSpace(strings.TrimPrefix(content, "^"))
			if token != "" {
				exact[token] = code
			}
			continue
		}
		for _, tok := range strings.Split(content, ",") {
			tok = strings.TrimSpace(tok)
			if tok == "" {
				continue
			}
			partial[tok] = append(partial[tok], partialEntry{categoryCode: code, rule: r})
		}
	}

	m.exact = exact
	m.partial = partial
}

// Recognize looks the normalized input up in the exact table first, then
// scores every partial token contained in it.
func (m *KeywordMatcher) Recognize(_ context.Context, text string, _ []models.IntentCategory, _ []models.IntentRule) (models.IntentResult, bool, error) {
	input := strings.ToLower(strings.TrimSpace(text))
	if input == "" {
		return models.IntentResult{}, false, nil
	}

	m.mu.Lock()
	exact := m.exact
	partial := m.partial
	m.mu.Unlock()

	if code, ok := exact[input]; ok {
		return models.IntentResult{
			Intent:         code,
			Confidence:     1.0,
			RecognizerType: string(TypeKeyword),
		}, true, nil
	}

	var (
		bestScore float64
		bestCode  string
		bestRule  models.IntentRule
		found     bool
	)

	inputRunes := []rune(input)
	for token, entries := range partial {
		if !strings.Contains(input, token) {
			continue
		}
		base := scoreBase(input, token)
		tokenLen := len([]rune(token))
		bonus := 0.2 * float64(tokenLen) / float64(len(inputRunes))
		if bonus > 0.2 {
			bonus = 0.2
		}
		capped := base + bonus
		if capped > 1.0 {
			capped = 1.0
		}
		for _, e := range entries {
			score := capped * e.rule.Weight
			if score > 1.0 {
				score = 1.0
			}
			if !found || score > bestScore {
				found = true
				bestScore = score
				bestCode = e.categoryCode
				bestRule = e.rule
			}
		}
	}

	if !found {
		return models.IntentResult{}, false, nil
	}

	return models.IntentResult{
		Intent:     bestCode,
		Confidence: clampConfidence(bestScore),
		MatchedRules: []models.MatchedRule{{
			ID:      bestRule.ID,
			Type:    bestRule.RuleType,
			Content: bestRule.Content,
			Weight:  bestRule.Weight,
		}},
		RecognizerType: string(TypeKeyword),
	}, true, nil
}

// scoreBase rates how a token sits inside the input: equality beats a
// prefix, a prefix beats a suffix, and a bare substring scores lowest.
func scoreBase(input, token string) float64 {
	switch {
	case token == input:
		return 1.0
	case strings.HasPrefix(input, token):
		return 0.9
	case strings.HasSuffix(input, token):
		return 0.85
	case strings.Contains(" "+input+" ", " "+token+" "):
		return 0.8
	default:
		return 0.6
	}
}
