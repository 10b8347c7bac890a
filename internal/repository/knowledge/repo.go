// Package knowledge is an in-memory document corpus with embedding-based
// retrieval and a keyword fallback for deployments without an embedding
// provider.
package knowledge

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/keplerlabs/kepler/internal/domain"
)

// Document is one corpus entry. Embedding may be empty when the corpus was
// built without a provider; such entries only participate in keyword search.
type Document struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Source    string    `json:"source"`
	Embedding []float32 `json:"embedding,omitempty"`
}

// defaultMinSimilarity below which a semantic match is discarded.
const defaultMinSimilarity = 0.2

// Repo retrieves documents from the loaded corpus. When an embedder is
// configured it ranks by cosine similarity of the query embedding; otherwise
// (or when embedding fails) it falls back to keyword-overlap ranking.
type Repo struct {
	docs          []Document
	embedder      domain.Embedder
	minSimilarity float64
	logger        *zap.Logger
}

// New creates a corpus repository. embedder may be nil.
func New(docs []Document, embedder domain.Embedder, logger *zap.Logger) *Repo {
	return &Repo{docs: docs, embedder: embedder, minSimilarity: defaultMinSimilarity, logger: logger}
}

// WithMinSimilarity overrides the semantic similarity floor.
func (r *Repo) WithMinSimilarity(v float64) *Repo {
	if v > 0 {
		r.minSimilarity = v
	}
	return r
}

// Len reports the corpus size.
func (r *Repo) Len() int { return len(r.docs) }

// Retrieve returns up to topK candidates ranked by relevance to the query.
func (r *Repo) Retrieve(ctx context.Context, query string, topK int) ([]domain.Candidate, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrEmptyQuery
	}
	if topK <= 0 || len(r.docs) == 0 {
		return nil, nil
	}

	if r.embedder != nil {
		candidates, err := r.semanticSearch(ctx, query, topK)
		if err == nil {
			return candidates, nil
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("retrieve: %w", ctx.Err())
		}
		r.logger.Warn("Semantic search failed, falling back to keyword search", zap.Error(err))
	}

	return r.keywordSearch(query, topK), nil
}

type rankedDoc struct {
	doc   Document
	score float64
}

func (r *Repo) semanticSearch(ctx context.Context, query string, topK int) ([]domain.Candidate, error) {
	res, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	var ranked []rankedDoc
	for _, doc := range r.docs {
		if len(doc.Embedding) == 0 {
			continue
		}
		sim := domain.CosineSimilarity(res.Embedding, doc.Embedding)
		if sim < r.minSimilarity {
			continue
		}
		ranked = append(ranked, rankedDoc{doc: doc, score: sim})
	}

	return toCandidates(ranked, topK), nil
}

// keywordSearch ranks documents by the fraction of query terms each contains.
func (r *Repo) keywordSearch(query string, topK int) []domain.Candidate {
	terms := splitTerms(query)
	if len(terms) == 0 {
		return nil
	}

	var ranked []rankedDoc
	for _, doc := range r.docs {
		text := strings.ToLower(doc.Title + " " + doc.Content)
		matched := 0
		for _, term := range terms {
			if strings.Contains(text, term) {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		ranked = append(ranked, rankedDoc{doc: doc, score: float64(matched) / float64(len(terms))})
	}

	return toCandidates(ranked, topK)
}

func toCandidates(ranked []rankedDoc, topK int) []domain.Candidate {
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	if len(ranked) > topK {
		ranked = ranked[:topK]
	}

	candidates := make([]domain.Candidate, 0, len(ranked))
	now := time.Now().UTC()
	for _, rd := range ranked {
		candidates = append(candidates, domain.Candidate{
			Content:        rd.doc.Content,
			Title:          rd.doc.Title,
			SourceLabel:    rd.doc.Source,
			Origin:         domain.OriginLocal,
			RelevanceScore: rd.score,
			RetrievedAt:    now,
		})
	}
	return candidates
}

func splitTerms(query string) []string {
	seen := make(map[string]struct{})
	var terms []string
	for _, f := range strings.Fields(strings.ToLower(query)) {
		f = strings.Trim(f, ".,!?\"'")
		if len(f) < 3 {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		terms = append(terms, f)
	}
	return terms
}
