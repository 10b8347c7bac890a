package resolve

import (
	"context"
	"sync/atomic"

	"github.com/keplerlabs/kepler/internal/domain"
)

// mockRetriever returns fixed local candidates.
type mockRetriever struct {
	candidates []domain.Candidate
	err        error
	calls      atomic.Int64
}

func (m *mockRetriever) Retrieve(_ context.Context, _ string, topK int) ([]domain.Candidate, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	c := m.candidates
	if len(c) > topK {
		c = c[:topK]
	}
	return c, nil
}

// mockSearcher returns fixed web candidates and counts invocations.
type mockSearcher struct {
	candidates []domain.Candidate
	calls      atomic.Int64
}

func (m *mockSearcher) Search(_ context.Context, _ string, maxResults int) []domain.Candidate {
	m.calls.Add(1)
	c := m.candidates
	if len(c) > maxResults {
		c = c[:maxResults]
	}
	return c
}

// mockScorer returns fixed signals.
type mockScorer struct {
	relevance float64
	quality   float64
}

func (m *mockScorer) DomainRelevance(context.Context, string) float64 { return m.relevance }

func (m *mockScorer) ResultQuality(_ string, candidates []domain.Candidate) float64 {
	if len(candidates) == 0 {
		return 0
	}
	return m.quality
}

func (m *mockScorer) CountAdequacy(n int) float64 {
	a := float64(n) / 3.0
	if a > 1 {
		a = 1
	}
	return a
}

func localCand(content string, score float64) domain.Candidate {
	return domain.Candidate{Content: content, SourceLabel: "knowledge_base", Origin: domain.OriginLocal, RelevanceScore: score}
}

func webCand(content string, score float64) domain.Candidate {
	return domain.Candidate{Content: content, SourceLabel: "web_search", Origin: domain.OriginWeb, RelevanceScore: score}
}
