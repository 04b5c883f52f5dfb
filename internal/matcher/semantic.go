package matcher

import (
	"context"
	"math"
	"sync"

	"github.com/fyrsmithlabs/intentd/internal/embeddings"
	"github.com/fyrsmithlabs/intentd/internal/models"
)

// ruleVector is one semantic rule's encoded example and weight.
type ruleVector struct {
	vector []float32
	weight float64
	rule   models.IntentRule
}

// VectorIndex optionally persists encoded rule vectors so a pipeline
// recompile after a restart does not re-encode every semantic rule before
// serving traffic.
// Implementations: internal/vectorstore's qdrant and chromem adapters.
// A nil VectorIndex is a valid no-op — the matcher always keeps its own
// in-memory copy regardless of whether persistence is configured.
type VectorIndex interface {
	// Load returns previously persisted vectors for a category, if any.
	Load(ctx context.Context, categoryID string) ([]PersistedVector, bool)
	// Store persists the encoded vectors for a category.
	Store(ctx context.Context, categoryID string, vectors []PersistedVector) error
}

// PersistedVector is one rule's vector as handed to/from a VectorIndex.
type PersistedVector struct {
	RuleID string
	Vector []float32
	Weight float64
}

// SemanticMatcher scores dense-vector similarity against
// batch-encoded rule examples, gated by a configurable threshold.
type SemanticMatcher struct {
	enabled   bool
	threshold float64
	embedder  embeddings.Embedder
	index     VectorIndex

	mu       sync.Mutex
	built    bool
	byCat    map[string][]ruleVector // category code -> rule vectors
}

// NewSemanticMatcher returns a SemanticMatcher. index may be nil to disable
// persistence (the matcher still works, purely in-memory).
func NewSemanticMatcher(enabled bool, threshold float64, embedder embeddings.Embedder, index VectorIndex) *SemanticMatcher {
	return &SemanticMatcher{enabled: enabled, threshold: threshold, embedder: embedder, index: index}
}

func (m *SemanticMatcher) Type() Type     { return TypeSemantic }
func (m *SemanticMatcher) Enabled() bool  { return m.enabled }
func (m *SemanticMatcher) Shutdown(context.Context) error { return nil }

// Initialize groups semantic rules by category and batch-encodes them,
// consulting the VectorIndex first so an already-persisted category skips
// re-encoding.
func (m *SemanticMatcher) Initialize(ctx context.Context, categories []models.IntentCategory, rules []models.IntentRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.built {
		return nil
	}
	if m.embedder == nil {
		m.byCat = map[string][]ruleVector{}
		m.built = true
		return nil
	}

	byCategory := make(map[string]models.IntentCategory, len(categories))
	for _, c := range categories {
		if c.IsActive {
			byCategory[c.ID] = c
		}
	}

	grouped := make(map[string][]models.IntentRule) // category ID -> rules
	var order []string
	for _, r := range rules {
		if r.RuleType != models.RuleTypeSemantic || !r.IsActive || !r.Enabled {
			continue
		}
		if _, ok := byCategory[r.CategoryID]; !ok {
			continue
		}
		if _, seen := grouped[r.CategoryID]; !seen {
			order = append(order, r.CategoryID)
		}
		grouped[r.CategoryID] = append(grouped[r.CategoryID], r)
	}

	byCat := make(map[string][]ruleVector, len(order))
	for _, catID := range order {
		cat := byCategory[catID]
		catRules := grouped[catID]

		if m.index != nil {
			if persisted, ok := m.index.Load(ctx, catID); ok {
				// Persisted vectors come back in no particular order; pair
				// them with rules by ID, and fall through to re-encoding if
				// any rule is missing its vector.
				byID := make(map[string]PersistedVector, len(persisted))
				for _, p := range persisted {
					byID[p.RuleID] = p
				}
				vecs := make([]ruleVector, 0, len(catRules))
				for _, r := range catRules {
					p, found := byID[r.ID]
					if !found || len(p.Vector) == 0 {
						vecs = nil
						break
					}
					vecs = append(vecs, ruleVector{vector: p.Vector, weight: r.Weight, rule: r})
				}
				if vecs != nil {
					byCat[cat.Code] = vecs
					continue
				}
			}
		}

		texts := make([]string, len(catRules))
		for i, r := range catRules {
			texts[i] = r.Content
		}
		vectors, err := m.embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			continue
		}
		vecs := make([]ruleVector, len(catRules))
		persisted := make([]PersistedVector, len(catRules))
		for i, r := range catRules {
			vecs[i] = ruleVector{vector: vectors[i], weight: r.Weight, rule: r}
			persisted[i] = PersistedVector{RuleID: r.ID, Vector: vectors[i], Weight: r.Weight}
		}
		byCat[cat.Code] = vecs

		if m.index != nil {
			_ = m.index.Store(ctx, catID, persisted)
		}
	}

	m.byCat = byCat
	m.built = true
	return nil
}

// Recognize encodes the input once and takes, per category, the maximum
// weighted cosine similarity across that category's rule vectors.
func (m *SemanticMatcher) Recognize(ctx context.Context, text string, _ []models.IntentCategory, _ []models.IntentRule) (models.IntentResult, bool, error) {
	if m.embedder == nil {
		return models.IntentResult{}, false, nil
	}

	m.mu.Lock()
	byCat := m.byCat
	m.mu.Unlock()

	queryVec, err := m.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return models.IntentResult{}, false, nil
	}

	var (
		bestCode  string
		bestScore float64
		bestRule  models.IntentRule
		found     bool
	)
	for code, vecs := range byCat {
		for _, rv := range vecs {
			score := cosineSimilarity(queryVec, rv.vector) * rv.weight
			if !found || score > bestScore {
				found = true
				bestScore = score
				bestCode = code
				bestRule = rv.rule
			}
		}
	}

	if !found || bestScore < m.threshold {
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
		RecognizerType: string(TypeSemantic),
	}, true, nil
}

// cosineSimilarity computes the cosine of the angle between two vectors,
// 0 when either is empty or zero-norm.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
