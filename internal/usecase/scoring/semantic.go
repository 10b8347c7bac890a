package scoring

import (
	"context"
	"fmt"

	"github.com/keplerlabs/kepler/internal/domain"
)

// SemanticMatcher scores domain relevance as the maximum cosine similarity
// between the query embedding and pre-embedded domain phrases. Phrase
// embeddings are computed once at construction so Match costs a single
// embedding call.
type SemanticMatcher struct {
	embedder domain.Embedder
	phrases  []embeddedPhrase
}

type embeddedPhrase struct {
	weight float64
	vector []float32
}

// NewSemanticMatcher embeds the phrase table up front. Fails if any phrase
// cannot be embedded; callers should fall back to the lexical matcher.
func NewSemanticMatcher(ctx context.Context, embedder domain.Embedder, table PhraseTable) (*SemanticMatcher, error) {
	weighted := table.Phrases()
	phrases := make([]embeddedPhrase, 0, len(weighted))
	for _, p := range weighted {
		res, err := embedder.Embed(ctx, p.Text)
		if err != nil {
			return nil, fmt.Errorf("embed domain phrase %q: %w", p.Text, err)
		}
		phrases = append(phrases, embeddedPhrase{weight: p.Weight, vector: res.Embedding})
	}
	return &SemanticMatcher{embedder: embedder, phrases: phrases}, nil
}

// Match returns the weighted maximum phrase similarity, shaped to be more
// decisive at the extremes and clamped to [0,1].
func (m *SemanticMatcher) Match(ctx context.Context, query string) (float64, error) {
	res, err := m.embedder.Embed(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("embed query: %w", err)
	}

	var best float64
	for _, p := range m.phrases {
		sim := domain.CosineSimilarity(res.Embedding, p.vector) * p.weight
		if sim > best {
			best = sim
		}
	}

	return shapeSimilarity(best), nil
}

// shapeSimilarity boosts strong similarities and suppresses weak ones so the
// score separates on-domain from off-domain queries more cleanly.
func shapeSimilarity(s float64) float64 {
	switch {
	case s > 0.7:
		s *= 1.2
	case s < 0.3:
		s *= 0.8
	}
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
