package websearch

import (
	"context"

	"github.com/keplerlabs/kepler/internal/domain"
)

// ResultCache memoizes search results per query (ISP).
type ResultCache interface {
	Get(ctx context.Context, query string) ([]domain.Candidate, bool)
	Set(ctx context.Context, query string, candidates []domain.Candidate)
}

// waiter throttles outbound requests per provider.
type waiter interface {
	Wait(ctx context.Context, provider string) error
}
