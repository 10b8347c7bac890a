package resolve

import (
	"context"

	"github.com/keplerlabs/kepler/internal/domain"
)

// LocalRetriever supplies candidates from the local knowledge base.
type LocalRetriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]domain.Candidate, error)
}

// WebSearcher supplies candidates from live external search. Implementations
// degrade to an empty list instead of returning errors.
type WebSearcher interface {
	Search(ctx context.Context, query string, maxResults int) []domain.Candidate
}

// Scorer produces the routing signals for a query and its local candidates.
type Scorer interface {
	DomainRelevance(ctx context.Context, query string) float64
	ResultQuality(query string, candidates []domain.Candidate) float64
	CountAdequacy(n int) float64
}
