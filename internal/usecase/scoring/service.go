// Package scoring computes the two signals the routing policy consumes:
// how characteristic of the knowledge-base domain a query is, and how good
// the locally retrieved candidates are.
package scoring

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/keplerlabs/kepler/internal/domain"
)

// Result-quality blend weights: mean relevance of the candidates, count
// adequacy against the target, and best query-term coverage.
const (
	qualityMeanWeight     = 0.5
	qualityCountWeight    = 0.25
	qualityCoverageWeight = 0.25

	// highQualityScore marks a candidate as strong evidence.
	highQualityScore = 0.7
	// highQualityBonusCap limits the bonus for stacking strong candidates.
	highQualityBonusCap = 0.3
)

// Service is the relevance scorer.
type Service struct {
	lexical     *LexicalMatcher
	semantic    *SemanticMatcher
	targetCount int
	logger      *zap.Logger
}

// New creates a scorer. semantic may be nil; the lexical matcher is always
// required and serves as the fallback when the semantic path fails.
func New(lexical *LexicalMatcher, semantic *SemanticMatcher, targetCount int, logger *zap.Logger) *Service {
	if targetCount <= 0 {
		targetCount = 5
	}
	return &Service{lexical: lexical, semantic: semantic, targetCount: targetCount, logger: logger}
}

// DomainRelevance scores how strongly the query matches the configured
// subject domain, in [0,1]. Never fails: semantic errors degrade to the
// lexical matcher.
func (s *Service) DomainRelevance(ctx context.Context, query string) float64 {
	if s.semantic != nil {
		score, err := s.semantic.Match(ctx, query)
		if err == nil {
			return score
		}
		s.logger.Warn("Semantic domain matching failed, using lexical fallback", zap.Error(err))
	}
	return s.lexical.Match(query)
}

// ResultQuality aggregates candidate-set quality into a single [0,1] score.
// An empty set scores 0.
func (s *Service) ResultQuality(query string, candidates []domain.Candidate) float64 {
	if len(candidates) == 0 {
		return 0
	}

	mean := meanRelevance(candidates)
	count := s.CountAdequacy(len(candidates))
	coverage := bestCoverage(query, candidates)

	score := qualityMeanWeight*mean + qualityCountWeight*count + qualityCoverageWeight*coverage
	if score > 1 {
		return 1
	}
	return score
}

// CountAdequacy normalizes a candidate count against the target count.
func (s *Service) CountAdequacy(n int) float64 {
	adequacy := float64(n) / float64(s.targetCount)
	if adequacy > 1 {
		return 1
	}
	return adequacy
}

// meanRelevance is the average relevance score plus a capped bonus for
// multiple strong candidates.
func meanRelevance(candidates []domain.Candidate) float64 {
	var sum float64
	highQuality := 0
	for _, c := range candidates {
		sum += c.RelevanceScore
		if c.RelevanceScore > highQualityScore {
			highQuality++
		}
	}

	bonus := float64(highQuality) * 0.1
	if bonus > highQualityBonusCap {
		bonus = highQualityBonusCap
	}

	mean := sum/float64(len(candidates)) + bonus
	if mean > 1 {
		return 1
	}
	return mean
}

// bestCoverage is the highest fraction of distinct query terms found in any
// single candidate's title+content.
func bestCoverage(query string, candidates []domain.Candidate) float64 {
	terms := tokenSet(query)
	if len(terms) == 0 {
		return 0
	}

	var best float64
	for _, c := range candidates {
		text := strings.ToLower(c.Title + " " + c.Content)
		matched := 0
		for term := range terms {
			if strings.Contains(text, term) {
				matched++
			}
		}
		coverage := float64(matched) / float64(len(terms))
		if coverage > best {
			best = coverage
		}
	}
	return best
}
